package plan

import "github.com/fluentwork/coach/internal/domain"

// DefaultPlan returns the built-in five-day plan for weekNumber. It is used
// whenever plan generation is unavailable.
func DefaultPlan(weekNumber int) *domain.WeeklyPlan {
	if weekNumber < 1 {
		weekNumber = 1
	}
	return &domain.WeeklyPlan{
		WeekNumber:   weekNumber,
		MainFocus:    "Comunicación profesional básica",
		GrammarFocus: "Present Simple vs Present Continuous",
		DailyGoals: []domain.DailyGoal{
			{
				Day:  "Lunes",
				Goal: "Practicar saludos y presentaciones",
				Time: "10 min",
				PracticeScenario: domain.PracticeScenario{
					Title:   "Professional Introduction",
					Prompt:  "Preséntate a un nuevo compañero de trabajo",
					Context: "Meeting",
					Theory:  `Usa "I am" para información permanente y "I work" para tu rol actual.`,
				},
			},
			{
				Day:  "Martes",
				Goal: "Escribir un email de seguimiento",
				Time: "15 min",
				PracticeScenario: domain.PracticeScenario{
					Title:   "Follow-up Email",
					Prompt:  "Escribe un email de seguimiento después de una reunión",
					Context: "Email",
					Theory:  `Comienza con "Thank you for..." o "Following up on..."`,
				},
			},
			{
				Day:  "Miércoles",
				Goal: "Daily standup update",
				Time: "10 min",
				PracticeScenario: domain.PracticeScenario{
					Title:   "Daily Meeting Update",
					Prompt:  "Explica qué hiciste ayer y en qué trabajarás hoy",
					Context: "Daily Standup",
					Theory:  `Usa Past Simple para ayer ("I finished...") y will/going to para hoy.`,
				},
			},
			{
				Day:  "Jueves",
				Goal: "Pedir clarificación educadamente",
				Time: "10 min",
				PracticeScenario: domain.PracticeScenario{
					Title:   "Requesting Clarification",
					Prompt:  "Un compañero te envió instrucciones confusas. Pide clarificación.",
					Context: "Slack/Chat",
					Theory:  `Usa "Could you please clarify...?" para sonar educado.`,
				},
			},
			{
				Day:  "Viernes",
				Goal: "Resumen semanal",
				Time: "15 min",
				PracticeScenario: domain.PracticeScenario{
					Title:   "Weekly Summary",
					Prompt:  "Escribe un resumen de tus logros de la semana para tu manager",
					Context: "Email",
					Theory:  `Usa "I completed...", "I achieved...", "Next week I will..."`,
				},
			},
		},
		NewVocabulary: StarterVocabulary(),
	}
}

// StarterVocabulary is the fixed vocabulary set of the built-in plan.
func StarterVocabulary() []domain.VocabularyItem {
	return []domain.VocabularyItem{
		{ID: "v1", Word: "deadline", Translation: "fecha límite", Example: "The deadline is next Friday.", Category: domain.CategoryProfessional},
		{ID: "v2", Word: "feedback", Translation: "retroalimentación", Example: "Could you give me some feedback?", Category: domain.CategoryProfessional},
		{ID: "v3", Word: "stakeholder", Translation: "parte interesada", Example: "We need to update the stakeholders.", Category: domain.CategoryProfessional},
		{ID: "v4", Word: "milestone", Translation: "hito", Example: "We reached an important milestone.", Category: domain.CategoryProfessional},
		{ID: "v5", Word: "blocker", Translation: "impedimento", Example: "I have a blocker on this task.", Category: domain.CategoryProfessional},
	}
}
