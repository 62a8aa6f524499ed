package classify

import "fmt"

const promptTemplate = `
You are an expert email classifier for job opportunities. Analyze the following email content and extract job-related information.
Return ONLY a valid JSON object with this exact structure:
{
  "company": "exact company name or 'Unknown'",
  "location": "city/state/country or 'Remote' or 'Unknown'",
  "salary": "salary/stipend with currency or 'Not specified'",
  "deadline": "application deadline in MM/DD/YYYY format or 'N/A'",
  "category": "specific job role/position or 'Not specified'",
  "tech_stack": "comma-separated technologies or 'Not specified'"
}
Email Content:
Subject: %s
Body:
%s
`

func BuildPrompt(subject, body string) string {
	return fmt.Sprintf(promptTemplate, subject, body)
}
