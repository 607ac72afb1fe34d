package models

import "testing"

func TestConversationType_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		ct       ConversationType
		expected bool
	}{
		{"private", ConversationPrivate, true},
		{"dog discussion", ConversationDogDiscussion, true},
		{"location group", ConversationLocationGroup, true},
		{"unknown value", ConversationType("group_chat"), false},
		{"empty string", ConversationType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ct.IsValid(); got != tt.expected {
				t.Errorf("IsValid() for type %q got = %v, want %v", tt.ct, got, tt.expected)
			}
		})
	}
}

func TestConversationType_IsGroup(t *testing.T) {
	if ConversationPrivate.IsGroup() {
		t.Error("private conversations are not joinable groups")
	}
	if !ConversationDogDiscussion.IsGroup() || !ConversationLocationGroup.IsGroup() {
		t.Error("discussion and location conversations are groups")
	}
}

func TestPresenceStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   PresenceStatus
		expected bool
	}{
		{"online", PresenceOnline, true},
		{"away", PresenceAway, true},
		{"busy", PresenceBusy, true},
		{"offline", PresenceOffline, true},
		{"unknown value", PresenceStatus("invisible"), false},
		{"empty string", PresenceStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.expected {
				t.Errorf("IsValid() for status %q got = %v, want %v", tt.status, got, tt.expected)
			}
		})
	}
}
