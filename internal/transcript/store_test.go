package transcript

import "testing"

func TestNew_SystemTurnFirst(t *testing.T) {
	s := New("You are a helpful SDR.")

	if s.Len() != 1 {
		t.Fatalf("Expected 1 turn after creation, got %d", s.Len())
	}

	turns := s.Turns()
	if turns[0].Role != RoleSystem {
		t.Errorf("Expected first turn role 'system', got '%s'", turns[0].Role)
	}
	if turns[0].Content != "You are a helpful SDR." {
		t.Errorf("Unexpected system content: %s", turns[0].Content)
	}
}

func TestAppend_Order(t *testing.T) {
	s := New("sys")
	s.AppendUser("hello")
	s.AppendAssistant("hi there")
	s.AppendUser("can we schedule a demo?")

	turns := s.Turns()
	wantRoles := []Role{RoleSystem, RoleUser, RoleAssistant, RoleUser}
	if len(turns) != len(wantRoles) {
		t.Fatalf("Expected %d turns, got %d", len(wantRoles), len(turns))
	}
	for i, role := range wantRoles {
		if turns[i].Role != role {
			t.Errorf("Turn %d: expected role '%s', got '%s'", i, role, turns[i].Role)
		}
	}

	// System turn stays first and unique
	systemCount := 0
	for _, turn := range turns {
		if turn.Role == RoleSystem {
			systemCount++
		}
	}
	if systemCount != 1 {
		t.Errorf("Expected exactly one system turn, got %d", systemCount)
	}
}

func TestTurns_ReturnsCopy(t *testing.T) {
	s := New("sys")
	s.AppendUser("hello")

	turns := s.Turns()
	turns[0].Content = "mutated"

	if s.Turns()[0].Content != "sys" {
		t.Error("Mutating the returned slice must not affect the store")
	}
}

func TestLast(t *testing.T) {
	s := New("sys")
	if s.Last().Role != RoleSystem {
		t.Errorf("Expected last turn 'system', got '%s'", s.Last().Role)
	}

	s.AppendUser("hello")
	if s.Last().Content != "hello" {
		t.Errorf("Expected last content 'hello', got '%s'", s.Last().Content)
	}
}
