package generation

import "github.com/phrazzld/viva-api/internal/domain"

// fallbackPrompts provides a neutral follow-up question per exam part, used
// when the examiner policy is unavailable or returns an invalid response.
var fallbackPrompts = map[domain.ExamPart]string{
	domain.PartOne:   "Let's continue. Tell me more about your daily life and the things you enjoy.",
	domain.PartTwo:   "Please keep going with your description. What else stands out in your memory?",
	domain.PartThree: "Let's continue. What do you think about this topic more generally?",
}

// FallbackIntervention returns the deterministic neutral intervention used
// whenever the policy generator fails: maintain difficulty, move on with a
// generic prompt, and give no skill estimates. The attempt is never failed by
// a degraded collaborator.
func FallbackIntervention(part domain.ExamPart) *Intervention {
	prompt, ok := fallbackPrompts[part]
	if !ok {
		prompt = fallbackPrompts[domain.PartOne]
	}

	return &Intervention{
		Action:     ActionMaintain,
		NextPrompt: prompt,
		Feedback:   "Thanks for your answer. Keep developing your ideas with specific examples.",
	}
}

// FallbackDrills returns a fixed set of correction drills for the given
// error category, used when drill generation fails.
func FallbackDrills(errorType string) *DrillSet {
	return &DrillSet{
		FocusArea: errorType,
		Drills: []Drill{
			{
				ErrorType:         errorType,
				SentenceWithError: "The group of students [ERROR: are] here.",
				CorrectSentence:   "The group of students is here.",
				Explanation:       "Collective nouns like 'group' take singular verbs.",
			},
			{
				ErrorType:         errorType,
				SentenceWithError: "Neither my brother nor my sister [ERROR: are] coming.",
				CorrectSentence:   "Neither my brother nor my sister is coming.",
				Explanation:       "With 'neither...nor', the verb agrees with the nearest subject.",
			},
			{
				ErrorType:         errorType,
				SentenceWithError: "Everyone [ERROR: have] their own opinion.",
				CorrectSentence:   "Everyone has their own opinion.",
				Explanation:       "Indefinite pronouns like 'everyone' are singular.",
			},
		},
	}
}
