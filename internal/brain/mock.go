package brain

import "context"

// MockModel is a deterministic TextModel for local development without an
// API key. It echoes the last user message.
type MockModel struct{}

func NewMockModel() *MockModel { return &MockModel{} }

func (m *MockModel) Complete(_ context.Context, _ string, msgs []Message) (string, error) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return "Accha, toh tum keh rahe ho: " + msgs[i].Content, nil
		}
	}
	return "Haan, bolo!", nil
}
