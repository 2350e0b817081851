package schema

// MajorCategory is the high-level semantic bucket for a message. The set is
// closed; the free-form sub-action key is where the taxonomy drifts.
type MajorCategory string

// Major categories.
const (
	CategoryCoreCommunication     MajorCategory = "core_communication"
	CategoryDecisionsAndApprovals MajorCategory = "decisions_and_approvals"
	CategoryScheduleAndTime       MajorCategory = "schedule_and_time"
	CategoryDocumentsAndReview    MajorCategory = "documents_and_review"
	CategoryFinancialAndAdmin     MajorCategory = "financial_and_admin"
	CategoryPeopleAndProcess      MajorCategory = "people_and_process"
	CategoryInformationAndOrg     MajorCategory = "information_and_org"
	CategoryLearningAndAwareness  MajorCategory = "learning_and_awareness"
	CategorySocialAndPeople       MajorCategory = "social_and_people"
	CategoryMetaAndSystems        MajorCategory = "meta_and_systems"
	CategoryOther                 MajorCategory = "other"
)

// MajorCategories lists every valid category in declaration order.
var MajorCategories = []MajorCategory{
	CategoryCoreCommunication,
	CategoryDecisionsAndApprovals,
	CategoryScheduleAndTime,
	CategoryDocumentsAndReview,
	CategoryFinancialAndAdmin,
	CategoryPeopleAndProcess,
	CategoryInformationAndOrg,
	CategoryLearningAndAwareness,
	CategorySocialAndPeople,
	CategoryMetaAndSystems,
	CategoryOther,
}

// Valid reports whether c is a member of the closed category set.
func (c MajorCategory) Valid() bool {
	for _, v := range MajorCategories {
		if v == c {
			return true
		}
	}
	return false
}

// CategoryNames returns the categories as plain strings, for API metadata.
func CategoryNames() []string {
	out := make([]string, len(MajorCategories))
	for i, c := range MajorCategories {
		out[i] = string(c)
	}
	return out
}

// Urgency and priority levels share one scale.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// ValidUrgencies is the set of allowed urgency/priority values.
var ValidUrgencies = []string{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

// IsValidUrgency checks if an urgency or priority string is valid.
func IsValidUrgency(u string) bool {
	for _, v := range ValidUrgencies {
		if v == u {
			return true
		}
	}
	return false
}

// Recommended-action kinds.
const (
	KindPrimary   = "PRIMARY"
	KindSecondary = "SECONDARY"
	KindDanger    = "DANGER"
)

// ValidKinds is the set of allowed recommended-action kinds.
var ValidKinds = []string{KindPrimary, KindSecondary, KindDanger}

// IsValidKind checks if a recommended-action kind is valid.
func IsValidKind(k string) bool {
	for _, v := range ValidKinds {
		if v == k {
			return true
		}
	}
	return false
}

// TaskStatusOpen is the only status a proposed task may carry; the field is
// server-controlled, never inference-controlled.
const TaskStatusOpen = "open"
