package analyses

import (
	"fmt"
	"strings"
)

const (
	scoreTemperature           float32 = 0.3
	skillsTemperature          float32 = 0.3
	recommendationsTemperature float32 = 0.4
)

const (
	scoreSystem           = "You are an expert ATS system and recruitment specialist. Provide accurate, objective analysis in valid JSON format."
	skillsSystem          = "You are an expert technical recruiter. Provide accurate skills analysis in valid JSON format."
	recommendationsSystem = "You are an expert resume writer. Provide specific, actionable recommendations in valid JSON format."
)

const noMissingSkills = "None identified"

const scorePromptTemplate = `
You are an expert ATS (Applicant Tracking System) and recruitment specialist.

Analyze the following job description and resume, then provide a detailed similarity score and analysis.

JOB DESCRIPTION:
%s

RESUME:
%s

Please provide your analysis in the following JSON format:
{
    "similarity_score": <number between 0-100>,
    "overall_match": "<Poor/Fair/Good/Excellent>",
    "key_strengths": ["strength1", "strength2", "strength3"],
    "analysis_summary": "Brief summary of how well the resume matches the job"
}

Be objective and thorough in your assessment.
`

const skillsPromptTemplate = `
You are an expert technical recruiter and skills analyst.

Analyze the following job description and resume to identify skills.

JOB DESCRIPTION:
%s

RESUME:
%s

Identify:
1. Technical skills, tools, and technologies mentioned in the job description
2. Which of these skills are present in the resume (matching skills)
3. Which required/preferred skills are missing from the resume (missing skills)

Provide your analysis in the following JSON format:
{
    "matching_skills": ["skill1", "skill2", "skill3"],
    "missing_skills": ["skill1", "skill2", "skill3"],
    "partial_matches": ["skill1: explanation", "skill2: explanation"]
}

Be specific and list actual skill names (e.g., "Python", "AWS", "Agile", "Leadership").
`

const recommendationsPromptTemplate = `
You are an expert resume writer and career coach.

Based on the job description and current resume, provide specific, actionable recommendations to improve the resume.

JOB DESCRIPTION:
%s

RESUME:
%s

MISSING SKILLS:
%s

Provide 5-8 specific, actionable recommendations in the following JSON format:
{
    "recommendations": [
        "Specific recommendation 1",
        "Specific recommendation 2",
        "Specific recommendation 3"
    ]
}

Focus on:
- How to highlight relevant experience better
- Keywords to add (if genuinely applicable)
- Format/structure improvements
- Ways to address missing skills
- Quantifying achievements
- Tailoring the resume to the job
`

func buildScorePrompt(jobText, resumeText string) string {
	return fmt.Sprintf(scorePromptTemplate, jobText, resumeText)
}

func buildSkillsPrompt(jobText, resumeText string) string {
	return fmt.Sprintf(skillsPromptTemplate, jobText, resumeText)
}

func buildRecommendationsPrompt(jobText, resumeText string, missing []string) string {
	return fmt.Sprintf(recommendationsPromptTemplate, jobText, resumeText, formatMissingSkills(missing))
}

func formatMissingSkills(missing []string) string {
	if len(missing) == 0 {
		return noMissingSkills
	}
	return strings.Join(missing, ", ")
}
