package sim_test

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	dynamo "github.com/san-kum/gridpde/internal/dynamo"
)

// MockTracker is a mock of Tracker interface.
type MockTracker struct {
	ctrl     *gomock.Controller
	recorder *MockTrackerMockRecorder
	isgomock struct{}
}

// MockTrackerMockRecorder is the mock recorder for MockTracker.
type MockTrackerMockRecorder struct {
	mock *MockTracker
}

// NewMockTracker creates a new mock instance.
func NewMockTracker(ctrl *gomock.Controller) *MockTracker {
	mock := &MockTracker{ctrl: ctrl}
	mock.recorder = &MockTrackerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTracker) EXPECT() *MockTrackerMockRecorder {
	return m.recorder
}

// Handle mocks base method.
func (m *MockTracker) Handle(x dynamo.State, t float64) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Handle", x, t)
	ret0, _ := ret[0].(error)
	return ret0
}

// Handle indicates an expected call of Handle.
func (mr *MockTrackerMockRecorder) Handle(x, t any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Handle", reflect.TypeOf((*MockTracker)(nil).Handle), x, t)
}

// MockStepObserver is a mock of StepObserver interface.
type MockStepObserver struct {
	ctrl     *gomock.Controller
	recorder *MockStepObserverMockRecorder
	isgomock struct{}
}

// MockStepObserverMockRecorder is the mock recorder for MockStepObserver.
type MockStepObserverMockRecorder struct {
	mock *MockStepObserver
}

// NewMockStepObserver creates a new mock instance.
func NewMockStepObserver(ctrl *gomock.Controller) *MockStepObserver {
	mock := &MockStepObserver{ctrl: ctrl}
	mock.recorder = &MockStepObserverMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStepObserver) EXPECT() *MockStepObserverMockRecorder {
	return m.recorder
}

// OnFinish mocks base method.
func (m *MockStepObserver) OnFinish(info dynamo.Info) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnFinish", info)
}

// OnFinish indicates an expected call of OnFinish.
func (mr *MockStepObserverMockRecorder) OnFinish(info any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnFinish", reflect.TypeOf((*MockStepObserver)(nil).OnFinish), info)
}

// OnStep mocks base method.
func (m *MockStepObserver) OnStep(t, dt float64, accepted bool) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "OnStep", t, dt, accepted)
}

// OnStep indicates an expected call of OnStep.
func (mr *MockStepObserverMockRecorder) OnStep(t, dt, accepted any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "OnStep", reflect.TypeOf((*MockStepObserver)(nil).OnStep), t, dt, accepted)
}
