/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package progress

import (
	"fmt"
	"strings"
)

const (
	barFilled = "█"
	barEmpty  = "░"
	// barMargin leaves room for the brackets and the percentage label.
	barMargin = 20
)

// Bar renders pct as a bar sized for a terminal cols columns wide:
// "[█████░░░░░] 50.00%".
func Bar(pct float64, cols int) string {
	width := cols - barMargin
	if width < 1 {
		width = 1
	}
	filled := int(float64(width) * clamp(pct) / 100)
	return fmt.Sprintf("[%s%s] %.2f%%", strings.Repeat(barFilled, filled), strings.Repeat(barEmpty, width-filled), pct)
}
