package ai

import "fmt"

const matchPrompt = `You are a professional career advisor. Analyze how well this job posting matches the candidate's resume.

Job Posting:
%s

Resume:
%s

Please provide:
1. A match percentage (0-100) indicating how well the candidate's experience and skills align with the job requirements
2. A detailed reasoning explaining the match percentage, highlighting strengths and gaps

IMPORTANT: In the reasoning field, format your response with proper paragraph breaks. Use \n\n to separate major sections and \n for list items.

Format your response EXACTLY as JSON:
{
  "match_percentage": <number between 0 and 100>,
  "reasoning": "<detailed explanation with \n for line breaks>"
}`

const extractPrompt = `Extract structured information from this job posting.

Job Posting:
%s

Please extract:
1. Company name (if mentioned)
2. Role/position name
3. The cleaned and formatted job posting content
4. Any other relevant details

Format your response EXACTLY as JSON:
{
  "company_name": "<company name or 'Unknown' if not found>",
  "role_name": "<role/position name or 'Unknown' if not found>",
  "extracted_content": "<cleaned and formatted job posting content>",
  "additional_info": {
    "location": "<location if mentioned>",
    "salary_range": "<salary if mentioned>",
    "employment_type": "<full-time/part-time/contract>",
    "remote_policy": "<remote/hybrid/onsite>",
    "key_requirements": ["<requirement1>", "<requirement2>"]
  }
}`

func buildMatchPrompt(jobPosting, resume string) string {
	return fmt.Sprintf(matchPrompt, jobPosting, resume)
}

func buildExtractPrompt(jobPosting string) string {
	return fmt.Sprintf(extractPrompt, jobPosting)
}
