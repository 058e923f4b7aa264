// Copyright 2025 The Gati Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corectx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLocalGeneratesRequestIDWhenAbsent(t *testing.T) {
	lctx := AcquireLocal("")
	defer ReleaseLocal(lctx)
	assert.NotEmpty(t, lctx.RequestID)
}

func TestAcquireLocalKeepsSuppliedRequestID(t *testing.T) {
	lctx := AcquireLocal("req-123")
	defer ReleaseLocal(lctx)
	assert.Equal(t, "req-123", lctx.RequestID)
}

func TestReleasedContextNeverLeaksStateAcrossAcquires(t *testing.T) {
	first := AcquireLocal("req-1")
	first.SetState("key", "leaked-value")
	first.ClientID = "client-1"
	ReleaseLocal(first)

	second := AcquireLocal("req-2")
	defer ReleaseLocal(second)

	_, ok := second.State("key")
	assert.False(t, ok)
	assert.Empty(t, second.ClientID)
}

func TestLifecyclePhaseTransitionsNotifyListeners(t *testing.T) {
	lctx := AcquireLocal("req-1")
	defer ReleaseLocal(lctx)

	var transitions [][2]Phase
	lctx.Lifecycle.OnPhaseChange(func(from, to Phase) {
		transitions = append(transitions, [2]Phase{from, to})
	})

	lctx.Lifecycle.SetPhase(PhaseValidating)
	lctx.Lifecycle.SetPhase(PhaseProcessing)

	require.Len(t, transitions, 2)
	assert.Equal(t, PhaseReceived, transitions[0][0])
	assert.Equal(t, PhaseValidating, transitions[0][1])
	assert.Equal(t, PhaseProcessing, transitions[1][1])
}

func TestLifecycleCleanupRunsOnce(t *testing.T) {
	lctx := AcquireLocal("req-1")
	defer ReleaseLocal(lctx)

	var calls int
	lctx.Lifecycle.OnCleanup(func() { calls++ })

	assert.False(t, lctx.Lifecycle.IsCleaningUp())
	lctx.Lifecycle.ExecuteCleanup()
	lctx.Lifecycle.ExecuteCleanup()

	assert.True(t, lctx.Lifecycle.IsCleaningUp())
	assert.Equal(t, 1, calls)
}

func TestLifecycleTimeoutAndErrorNotifications(t *testing.T) {
	lctx := AcquireLocal("req-1")
	defer ReleaseLocal(lctx)

	var timedOut bool
	var gotErr error

	lctx.Lifecycle.OnTimeout(func() { timedOut = true })
	lctx.Lifecycle.OnError(func(err error) { gotErr = err })

	assert.False(t, lctx.Lifecycle.IsTimedOut())
	lctx.Lifecycle.MarkTimedOut()
	assert.True(t, lctx.Lifecycle.IsTimedOut())
	assert.True(t, timedOut)

	lctx.Lifecycle.NotifyError(errors.New("boom"))
	require.Error(t, gotErr)
}

func TestRegisterCompensatingActionPreservesRegistrationOrder(t *testing.T) {
	lctx := AcquireLocal("req-1")
	defer ReleaseLocal(lctx)

	var order []int
	lctx.Lifecycle.RegisterCompensatingAction(func(ctx context.Context) error {
		order = append(order, 1)
		return nil
	})
	lctx.Lifecycle.RegisterCompensatingAction(func(ctx context.Context) error {
		order = append(order, 2)
		return nil
	})
	lctx.Lifecycle.RegisterCompensatingAction(func(ctx context.Context) error {
		order = append(order, 3)
		return nil
	})

	actions := lctx.Lifecycle.CompensatingActions()
	require.Len(t, actions, 3)

	for i := len(actions) - 1; i >= 0; i-- {
		require.NoError(t, actions[i](context.Background()))
	}
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestAcquireLocalClearsCompensationStack(t *testing.T) {
	first := AcquireLocal("req-1")
	first.Lifecycle.RegisterCompensatingAction(func(ctx context.Context) error { return nil })
	require.Len(t, first.Lifecycle.CompensatingActions(), 1)
	ReleaseLocal(first)

	second := AcquireLocal("req-2")
	defer ReleaseLocal(second)
	assert.Empty(t, second.Lifecycle.CompensatingActions())
}
