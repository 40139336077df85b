// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Hand-written in the shape MockGen emits.
// Source: github.com/luxfi/fieldmesh/module (interface: HAL)

// Package halmock is a GoMock package standing in for
// hal/simhal and hal/zmqhal in unit tests that need to script HAL
// behavior (dropped sends, reordered receives) rather than run a real
// bus or socket.
package halmock

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	field "github.com/luxfi/fieldmesh/field"
	wire "github.com/luxfi/fieldmesh/wire"
)

// MockHAL is a mock of the module.HAL interface.
type MockHAL struct {
	ctrl     *gomock.Controller
	recorder *MockHALMockRecorder
}

// MockHALMockRecorder is the mock recorder for MockHAL.
type MockHALMockRecorder struct {
	mock *MockHAL
}

// NewMockHAL creates a new mock instance.
func NewMockHAL(ctrl *gomock.Controller) *MockHAL {
	mock := &MockHAL{ctrl: ctrl}
	mock.recorder = &MockHALMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockHAL) EXPECT() *MockHALMockRecorder {
	return m.recorder
}

// NowUS mocks base method.
func (m *MockHAL) NowUS() uint64 {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NowUS")
	ret0, _ := ret[0].(uint64)
	return ret0
}

// NowUS indicates an expected call of NowUS.
func (mr *MockHALMockRecorder) NowUS() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NowUS", reflect.TypeOf((*MockHAL)(nil).NowUS))
}

// Send mocks base method.
func (m *MockHAL) Send(dest wire.ModuleID, typ wire.Type, payload []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Send", dest, typ, payload)
	ret0, _ := ret[0].(error)
	return ret0
}

// Send indicates an expected call of Send.
func (mr *MockHALMockRecorder) Send(dest, typ, payload interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockHAL)(nil).Send), dest, typ, payload)
}

// Recv mocks base method.
func (m *MockHAL) Recv() (wire.ModuleID, wire.Type, []byte, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Recv")
	ret0, _ := ret[0].(wire.ModuleID)
	ret1, _ := ret[1].(wire.Type)
	ret2, _ := ret[2].([]byte)
	ret3, _ := ret[3].(bool)
	return ret0, ret1, ret2, ret3
}

// Recv indicates an expected call of Recv.
func (mr *MockHALMockRecorder) Recv() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Recv", reflect.TypeOf((*MockHAL)(nil).Recv))
}

// Barrier mocks base method.
func (m *MockHAL) Barrier() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Barrier")
}

// Barrier indicates an expected call of Barrier.
func (mr *MockHALMockRecorder) Barrier() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Barrier", reflect.TypeOf((*MockHAL)(nil).Barrier))
}

// Region mocks base method.
func (m *MockHAL) Region() *field.Region {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Region")
	ret0, _ := ret[0].(*field.Region)
	return ret0
}

// Region indicates an expected call of Region.
func (mr *MockHALMockRecorder) Region() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Region", reflect.TypeOf((*MockHAL)(nil).Region))
}

// Platform mocks base method.
func (m *MockHAL) Platform() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Platform")
	ret0, _ := ret[0].(string)
	return ret0
}

// Platform indicates an expected call of Platform.
func (mr *MockHALMockRecorder) Platform() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Platform", reflect.TypeOf((*MockHAL)(nil).Platform))
}

// SelfID mocks base method.
func (m *MockHAL) SelfID() wire.ModuleID {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SelfID")
	ret0, _ := ret[0].(wire.ModuleID)
	return ret0
}

// SelfID indicates an expected call of SelfID.
func (mr *MockHALMockRecorder) SelfID() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SelfID", reflect.TypeOf((*MockHAL)(nil).SelfID))
}
