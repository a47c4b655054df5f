package domain

import "fmt"

// MergePolicy decides how a desired claim value combines with the values
// already stored for the same property.
type MergePolicy int

const (
	// Replace leaves exactly one statement holding the desired value. An
	// existing equal statement is kept, every other statement is removed.
	Replace MergePolicy = iota
	// KeepExisting adds the value only when the property has no statement at all.
	KeepExisting
	// AppendUnique adds the value unless an equal statement already exists.
	AppendUnique
)

func (p MergePolicy) String() string {
	switch p {
	case Replace:
		return "replace"
	case KeepExisting:
		return "keep_existing"
	case AppendUnique:
		return "append_unique"
	default:
		return fmt.Sprintf("MergePolicy(%d)", int(p))
	}
}

// ParseMergePolicy converts the profile spelling of a policy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "replace", "":
		return Replace, nil
	case "keep_existing":
		return KeepExisting, nil
	case "append_unique":
		return AppendUnique, nil
	default:
		return Replace, fmt.Errorf("unknown merge policy %q", s)
	}
}
