package pipeline

type Stage string

const (
	StageIdle        Stage = "idle"
	StageFetching    Stage = "fetching"
	StageFiltering   Stage = "filtering"
	StageClassifying Stage = "classifying"
	StageWriting     Stage = "writing"
	StageScheduling  Stage = "scheduling"
	StageDone        Stage = "done"
)
