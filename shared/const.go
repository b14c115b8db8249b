package shared

const (
	UserID    = "user_id"
	SessionID = "session_id"

	SectionLogicalReasoning    = "logical_reasoning"
	SectionReadingComp         = "reading_comprehension"
	SectionAnalyticalReasoning = "analytical_reasoning"

	// Review queue and reminder channel names shared between the
	// session engine, the outcome worker and the reminder sweep.
	OutcomeQueueKey     = "review:outcomes"
	ReminderChannel     = "review:reminders"
	OutcomeDeadQueueKey = "review:outcomes:dead"
)
