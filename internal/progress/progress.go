/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package progress estimates how far a reader has come through a story.
//
// The default Linear estimator divides the number of chapters shown so far by
// the number of chapters in the script. It over-counts on cycles and
// under-counts when branches skip chapters; UniqueVisits and ShortestPath are
// alternatives selectable through configuration.
package progress

import (
	"fmt"
	"strings"

	"branchreader/internal/story"
)

// Estimator computes a percentage in [0, 100].
// visited holds the ids of the chapters shown so far, the current one last.
type Estimator interface {
	Estimate(visited []int, c *story.Collection) float64
}

// Strategy names accepted by New.
const (
	NameLinear       = "linear"
	NameUniqueVisits = "unique"
	NameShortestPath = "shortest-path"
)

// New returns the estimator registered under name. An empty name selects Linear.
func New(name string) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameLinear:
		return Linear{}, nil
	case NameUniqueVisits:
		return UniqueVisits{}, nil
	case NameShortestPath:
		return ShortestPath{}, nil
	default:
		return nil, fmt.Errorf("unknown progress strategy %q", name)
	}
}

// Linear treats the number of steps taken as a position in a linear read-through.
type Linear struct{}

func (Linear) Estimate(visited []int, c *story.Collection) float64 {
	total := c.Len()
	if total == 0 {
		return 0
	}
	return clamp(float64(len(visited)) / float64(total) * 100)
}

// UniqueVisits counts distinct chapters seen, ignoring revisits.
type UniqueVisits struct{}

func (UniqueVisits) Estimate(visited []int, c *story.Collection) float64 {
	total := c.Len()
	if total == 0 {
		return 0
	}
	seen := make(map[int]struct{}, len(visited))
	for _, id := range visited {
		if _, ok := c.Lookup(id); ok {
			seen[id] = struct{}{}
		}
	}
	return clamp(float64(len(seen)) / float64(total) * 100)
}

// ShortestPath relates the steps taken to the shortest remaining distance
// from the current chapter to any ending. An ending is a chapter where the
// session stops: no choices, a terminal continuation, or only choices that
// lead nowhere.
type ShortestPath struct{}

func (ShortestPath) Estimate(visited []int, c *story.Collection) float64 {
	if c.Len() == 0 || len(visited) == 0 {
		return 0
	}
	dist, ok := distanceToEnding(c, visited[len(visited)-1])
	if !ok {
		return Linear{}.Estimate(visited, c)
	}
	steps := float64(len(visited))
	return clamp(steps / (steps + float64(dist)) * 100)
}

// distanceToEnding runs a breadth-first search over choice edges.
func distanceToEnding(c *story.Collection, from int) (int, bool) {
	if _, ok := c.Lookup(from); !ok {
		return 0, false
	}
	dist := map[int]int{from: 0}
	queue := []int{from}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ch, _ := c.Lookup(id)
		if IsEnding(ch, c) {
			return dist[id], true
		}
		for _, choice := range ch.Continuations() {
			if _, ok := c.Lookup(choice.ID); !ok {
				continue
			}
			if _, seen := dist[choice.ID]; seen {
				continue
			}
			dist[choice.ID] = dist[id] + 1
			queue = append(queue, choice.ID)
		}
	}
	return 0, false
}

// IsEnding reports whether reading ch ends the session: it has no
// continuation that leads to a chapter of c.
func IsEnding(ch story.Chapter, c *story.Collection) bool {
	for _, choice := range ch.Continuations() {
		if _, ok := c.Lookup(choice.ID); ok {
			return false
		}
	}
	return true
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
