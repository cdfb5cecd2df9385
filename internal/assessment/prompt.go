package assessment

import (
	"fmt"
	"strings"
)

const assessmentSystemPrompt = `You are an experienced instructor writing assessments that check real understanding, not recall of wording.`

const gradingSystemPrompt = `You are a fair and encouraging grader. Point out what works, what is missing, and how to fix it.`

func buildQuizPrompt(subtopics []string) string {
	return fmt.Sprintf(`Create a multiple choice quiz with 5 questions covering these subtopics: %s.
Format each question like this:
Q1. Question text
a) Option 1
b) Option 2 (correct)
c) Option 3
d) Option 4
Explanation: Explanation text

Continue for all 5 questions.`, strings.Join(subtopics, ", "))
}

func buildExercisePrompt(topics []string) string {
	return fmt.Sprintf(`Create 3 real world problem-practical exercises based on %s.
Format each exercise like this:
Exercise 1: Title
Description: Exercise description
Hint: First hint
Hint: Second hint
Test Case: First test case
Test Case: Second test case
Solution: Sample solution code

Continue for all 3 exercises.`, strings.Join(topics, ", "))
}

func buildProjectPrompt(topics []string) string {
	return fmt.Sprintf(`Create a real world problem-practical project covering these topics: %s.
Format the response like this:
Title: Project title
Description: Detailed project description
Requirements:
- Requirement 1
- Requirement 2
Steps:
- Step 1
- Step 2
Deliverables:
- Deliverable 1
- Deliverable 2
Resources:
- Resource 1
- Resource 2`, strings.Join(topics, ", "))
}

// buildStructuredPrompt asks for the same content as JSON matching the
// type's schema.
func buildStructuredPrompt(typ Type, topics, subtopics []string) string {
	switch typ {
	case TypeQuiz:
		return fmt.Sprintf("Create a multiple choice quiz with 5 questions covering these subtopics: %s.\n"+
			"Each question has four options prefixed \"a) \" to \"d) \", the letter of the correct option and a short explanation.",
			strings.Join(subtopics, ", "))
	case TypeExercise:
		return fmt.Sprintf("Create 3 real world problem-practical exercises based on %s.\n"+
			"Each exercise has a title, a description, two hints, two test cases and a sample solution.",
			strings.Join(topics, ", "))
	default:
		return fmt.Sprintf("Create a real world problem-practical project covering these topics: %s.\n"+
			"Give a title, a detailed description, and lists of requirements, steps, deliverables and resources.",
			strings.Join(topics, ", "))
	}
}

const gradingInstruction = "Provide a detailed explanation, mark out of 100, and a full correct solution."

func buildExerciseGradingPrompt(e Exercise, solution string) string {
	return fmt.Sprintf(`Evaluate the following solution for the exercise.
Exercise Title: %s
Description: %s
Test Cases: %s
Student's Solution:
%s

%s`, e.Title, e.Description, strings.Join(e.TestCases, ", "), solution, gradingInstruction)
}

func buildProjectGradingPrompt(p Project, solution string) string {
	return fmt.Sprintf(`Evaluate the following project solution.
Project Title: %s
Description: %s
Requirements: %s
Student's Solution:
%s

%s`, p.Title, p.Description, strings.Join(p.Requirements, ", "), solution, gradingInstruction)
}
