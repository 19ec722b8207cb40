/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package result extracts structured data from free-form model output.

Small models rarely answer with bare JSON. They wrap it in markdown fences or
surround it with prose, so ExtractJSON looks for, in order:

  - a ```json fenced block
  - any ``` fenced block
  - the outermost {...} object in the text

Extract combines ExtractJSON with json.Unmarshal:

	verdict, err := result.Extract[crew.ReviewVerdict](output)
	if err != nil {
		// The step output is still usable as text.
	}
*/
package result
