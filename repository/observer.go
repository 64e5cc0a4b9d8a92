/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"strings"

	"github.com/tomoncle/bunrepo/types"
)

//go:generate go run -mod=mod github.com/golang/mock/mockgen -build_flags=-mod=mod -destination=mocks/mock_observer.go -package=mocks . Observer

// Phase names the mutation an Observer is notified about.
type Phase string

const (
	PhaseCreating Phase = "repository.creating"
	PhaseUpdating Phase = "repository.updating"
	PhaseDeleting Phase = "repository.deleting"
)

var _ types.BaseEnum = PhaseCreating

func (p Phase) IsValid() bool {
	return p.Number() != types.IllegalValue
}

func (p Phase) Number() int {
	switch p {
	case PhaseCreating:
		return 0
	case PhaseUpdating:
		return 1
	case PhaseDeleting:
		return 2
	default:
		return types.IllegalValue
	}
}

func (p Phase) String() string {
	if !p.IsValid() {
		return types.IllegalName
	}
	return string(p)
}

func (p Phase) Desc() string {
	switch p {
	case PhaseCreating:
		return "before an entity is inserted"
	case PhaseUpdating:
		return "before matching rows are updated"
	case PhaseDeleting:
		return "before an entity is deleted"
	default:
		return types.IllegalDesc
	}
}

// Name is the phase without its "repository." prefix.
func (p Phase) Name() string {
	if !p.IsValid() {
		return types.IllegalName
	}
	return strings.TrimPrefix(string(p), "repository.")
}

// Observer is notified synchronously before every mutation. The payload is
// the *T being created or deleted, or the *bun.UpdateQuery about to run,
// already filtered to the target rows and without its SET clauses.
type Observer interface {
	Notify(ctx context.Context, phase Phase, payload interface{})
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, phase Phase, payload interface{})

func (f ObserverFunc) Notify(ctx context.Context, phase Phase, payload interface{}) {
	f(ctx, phase, payload)
}

type observers []Observer

func (o observers) Notify(ctx context.Context, phase Phase, payload interface{}) {
	for _, obs := range o {
		obs.Notify(ctx, phase, payload)
	}
}

// Observers fans a notification out to every non-nil observer in order.
func Observers(list ...Observer) Observer {
	out := make(observers, 0, len(list))
	for _, o := range list {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type noopObserver struct{}

func (noopObserver) Notify(context.Context, Phase, interface{}) {}
