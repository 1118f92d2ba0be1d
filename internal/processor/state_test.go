package processor

import "testing"

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		path    []State
		wantErr bool
	}{
		{"full run", []State{StateSampling, StateTranscribing, StateAnalyzing, StateParsing, StateCorrelating, StateAssembling, StateDone}, false},
		{"analysis retry", []State{StateSampling, StateTranscribing, StateAnalyzing, StateAnalyzing, StateParsing}, false},
		{"fail from idle", []State{StateFailed}, false},
		{"fail mid run", []State{StateSampling, StateTranscribing, StateFailed}, false},
		{"skip stage", []State{StateSampling, StateAnalyzing}, true},
		{"backwards", []State{StateSampling, StateTranscribing, StateSampling}, true},
		{"sampling loop", []State{StateSampling, StateSampling}, true},
		{"leave done", []State{StateSampling, StateTranscribing, StateAnalyzing, StateParsing, StateCorrelating, StateAssembling, StateDone, StateFailed}, true},
		{"leave failed", []State{StateFailed, StateSampling}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine()
			var err error
			for _, to := range tt.path {
				if err = m.Transition(m.state, to); err != nil {
					break
				}
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("Transition() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransitionExpectsCurrentState(t *testing.T) {
	m := newMachine()
	if err := m.Transition(StateSampling, StateTranscribing); err == nil {
		t.Error("Transition() from wrong state succeeded")
	}
	if m.state != StateIdle {
		t.Errorf("state = %s, want idle", m.state)
	}
}

func TestFail(t *testing.T) {
	m := newMachine()
	_ = m.Transition(StateIdle, StateSampling)
	if from := m.fail(); from != StateSampling {
		t.Errorf("fail() = %s, want sampling", from)
	}
	if from := m.fail(); from != StateFailed {
		t.Errorf("second fail() = %s, want failed", from)
	}
	if len(m.trace) != 3 {
		t.Errorf("trace = %v, want idle sampling failed", m.trace)
	}
}
