package radiator

import "github.com/jenkinsci/radiatorview/internal/protocol"

// EntryView converts an entry, and any children, to its wire form.
func EntryView(v ViewEntry) protocol.EntryView {
	out := protocol.EntryView{
		Name:               v.Name(),
		URL:                v.URL(),
		Status:             v.Status(),
		Result:             v.LastFinishedResult(),
		BackgroundColor:    v.BackgroundColor(),
		Color:              v.Color(),
		Broken:             v.Broken(),
		Building:           v.Building(),
		Stable:             v.Stable(),
		NotBuilt:           v.NotBuilt(),
		Queued:             v.Queued(),
		TestCount:          v.TestCount(),
		FailCount:          v.FailCount(),
		SuccessCount:       v.SuccessCount(),
		SuccessPercentage:  v.SuccessPercentage(),
		Diff:               v.Diff(),
		DiffColor:          v.DiffColor(),
		Culprit:            v.Culprit(),
		Culprits:           v.Culprits(),
		Claim:              v.Claim(),
		Claimed:            v.Claimed(),
		CompletelyClaimed:  v.CompletelyClaimed(),
		LastCompletedBuild: v.LastCompletedBuild(),
		LastStableBuild:    v.LastStableBuild(),
	}
	switch e := v.(type) {
	case *Entry:
		out.LastBuildURL = e.LastBuildURL()
		out.QueueNumber = e.QueueNumber()
		out.UnclaimedMatrixBuilds = e.UnclaimedMatrixBuilds()
	case *Group:
		out.Title = e.Title()
		for _, c := range e.Children() {
			out.Children = append(out.Children, EntryView(c))
		}
	}
	return out
}

// RowViews converts LayoutRows output to its wire form.
func RowViews(rows [][]ViewEntry) [][]protocol.EntryView {
	out := make([][]protocol.EntryView, 0, len(rows))
	for _, row := range rows {
		r := make([]protocol.EntryView, 0, len(row))
		for _, e := range row {
			r = append(r, EntryView(e))
		}
		out = append(out, r)
	}
	return out
}
