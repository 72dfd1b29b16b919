package domain

// Idea is the structured record extracted from a conversation. Empty fields
// are treated as unset.
type Idea struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Customer    string `json:"customer,omitempty"`
	SourceName  string `json:"sourceName,omitempty"`
	SourceEmail string `json:"sourceEmail,omitempty"`
}

// Overlay returns a copy of i with every set field of patch applied on top.
// Fields patch leaves empty keep their value from i.
func (i Idea) Overlay(patch Idea) Idea {
	out := i
	if patch.Name != "" {
		out.Name = patch.Name
	}
	if patch.Description != "" {
		out.Description = patch.Description
	}
	if patch.Customer != "" {
		out.Customer = patch.Customer
	}
	if patch.SourceName != "" {
		out.SourceName = patch.SourceName
	}
	if patch.SourceEmail != "" {
		out.SourceEmail = patch.SourceEmail
	}
	return out
}

// WithSource stamps the attribution fields from a profile lookup. A profile
// value that is empty leaves the stored attribution untouched.
func (i Idea) WithSource(p UserProfile) Idea {
	return i.Overlay(Idea{SourceName: p.RealName, SourceEmail: p.Email})
}

// MergeIdea applies the documented precedence for one turn: the stored idea
// is the base, the model's partial idea overrides it, and the source fields
// come from the fresh profile lookup falling back to the stored values.
func MergeIdea(stored, fromModel Idea, profile UserProfile) Idea {
	// The model never owns attribution.
	fromModel.SourceName = ""
	fromModel.SourceEmail = ""
	return stored.Overlay(fromModel).WithSource(profile)
}
