//nolint:revive // types is a standard Go package name pattern
package types

// Profile is the on-disk form of a user's stored answers and repeated
// experience entries.
type Profile struct {
	Answers     []AnswerValue     `json:"answers"`
	Experiences []ExperienceEntry `json:"experiences"`
}
