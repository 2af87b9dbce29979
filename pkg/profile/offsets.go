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

package profile

// detectOffset locates where a device's numbered sensor keys actually start.
//
// Old stats layouts expose fixed-width numbered keys (fan1..fan8,
// chain_acn1..chain_acn16) but populate a contiguous window whose first
// index varies by model and firmware. The algorithm scans the declared index
// range [first, last] in order and fixes the offset at the first index whose
// reading is nonzero (zero means the slot is not populated). When every slot
// reads zero the fallback offset is returned so callers still produce
// positionally-correct placeholder entries.
func detectOffset(read func(index int) (float64, bool), first, last, fallback int) int {
	for i := first; i <= last; i++ {
		if v, ok := read(i); ok && v != 0 {
			return i
		}
	}

	return fallback
}
