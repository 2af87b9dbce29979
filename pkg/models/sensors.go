/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

package models

// MeanNonZero averages a sensor reading sequence under the convention that a
// literal zero means "sensor absent", not a real zero measurement. Returns
// false when no populated sensor exists in the sequence.
func MeanNonZero(readings []float64) (float64, bool) {
	var sum float64

	count := 0

	for _, r := range readings {
		if r == 0 {
			continue
		}

		sum += r
		count++
	}

	if count == 0 {
		return 0, false
	}

	return sum / float64(count), true
}
