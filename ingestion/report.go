// Copyright 2025 Poiesic Systems
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


package ingestion

import (
	"fmt"
	"io"
	"time"
)

// Stage names a timed step of a pipeline run.
type Stage string

const (
	StageValidate Stage = "validate"
	StageLoad     Stage = "load"
	StageIndex    Stage = "index"
)

var stageText = map[Stage]string{
	StageValidate: "Validated data in %.4f sec",
	StageLoad:     "Created sentence embeddings and loaded data in %.4f sec",
	StageIndex:    "Built indexes in %.4f sec",
}

// Report summarizes a pipeline run.
type Report struct {
	Validated      int
	Embedded       int
	Loaded         int
	DroppedBatches int
	Durations      map[Stage]time.Duration

	order []Stage
}

func (r *Report) record(stage Stage, d time.Duration) {
	if r.Durations == nil {
		r.Durations = make(map[Stage]time.Duration)
	}
	if _, ok := r.Durations[stage]; !ok {
		r.order = append(r.order, stage)
	}
	r.Durations[stage] = d
}

// Print writes one timer line per completed stage followed by a summary line.
func (r *Report) Print(w io.Writer) {
	for _, stage := range r.order {
		fmt.Fprintf(w, stageText[stage]+"\n", r.Durations[stage].Seconds())
	}
	fmt.Fprintf(w, "Finished inserting %d records (%d validated, %d batches dropped)\n",
		r.Loaded, r.Validated, r.DroppedBatches)
}
