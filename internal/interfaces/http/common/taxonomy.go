package common

// SuggestedTags are offered as checkboxes on the store form.
// Stores may still carry any other tag.
var SuggestedTags = []string{"Wifi", "Open Late", "Family Friendly", "Vegetarian", "Licensed"}
