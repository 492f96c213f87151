package protocol

import "time"

type EntryView struct {
	Name                  string      `json:"name"`
	Title                 string      `json:"title,omitempty"`
	URL                   string      `json:"url,omitempty"`
	LastBuildURL          string      `json:"last_build_url,omitempty"`
	Status                string      `json:"status"`
	Result                Result      `json:"result,omitempty"`
	BackgroundColor       string      `json:"background_color"`
	Color                 string      `json:"color"`
	Broken                bool        `json:"broken"`
	Building              bool        `json:"building"`
	Stable                bool        `json:"stable"`
	NotBuilt              bool        `json:"not_built"`
	Queued                bool        `json:"queued"`
	QueueNumber           int         `json:"queue_number,omitempty"`
	TestCount             int         `json:"test_count"`
	FailCount             int         `json:"fail_count"`
	SuccessCount          int         `json:"success_count"`
	SuccessPercentage     string      `json:"success_percentage,omitempty"`
	Diff                  string      `json:"diff,omitempty"`
	DiffColor             string      `json:"diff_color,omitempty"`
	Culprit               string      `json:"culprit,omitempty"`
	Culprits              []string    `json:"culprits,omitempty"`
	Claim                 string      `json:"claim,omitempty"`
	UnclaimedMatrixBuilds string      `json:"unclaimed_matrix_builds,omitempty"`
	Claimed               bool        `json:"claimed"`
	CompletelyClaimed     bool        `json:"completely_claimed"`
	LastCompletedBuild    string      `json:"last_completed_build,omitempty"`
	LastStableBuild       string      `json:"last_stable_build,omitempty"`
	Children              []EntryView `json:"children,omitempty"`
}

type ViewSettings struct {
	Name               string            `json:"name"`
	CaptionText        string            `json:"caption_text,omitempty"`
	CaptionSize        int               `json:"caption_size"`
	ShowStable         bool              `json:"show_stable"`
	ShowStableDetail   bool              `json:"show_stable_detail"`
	ShowBuildStability bool              `json:"show_build_stability"`
	HighVis            bool              `json:"high_vis"`
	GroupByPrefix      bool              `json:"group_by_prefix"`
	ExcludeRegex       string            `json:"exclude_regex,omitempty"`
	BackgroundImages   map[string]string `json:"background_images,omitempty"`
}

type RadiatorSnapshot struct {
	RenderID     string        `json:"render_id"`
	GeneratedUTC time.Time     `json:"generated_utc"`
	View         ViewSettings  `json:"view"`
	Contents     EntryView     `json:"contents"`
	PassingRows  [][]EntryView `json:"passing_rows"`
	FailingRows  [][]EntryView `json:"failing_rows"`
}

type ClaimRequest struct {
	Job         string `json:"job"`
	Build       int    `json:"build"`
	Combination string `json:"combination,omitempty"`
	Claimed     *bool  `json:"claimed,omitempty"`
	ClaimedBy   string `json:"claimed_by"`
	Reason      string `json:"reason,omitempty"`
}

type ClaimResponse struct {
	Job         string `json:"job"`
	Build       int    `json:"build"`
	Combination string `json:"combination,omitempty"`
	Claimed     bool   `json:"claimed"`
}

type ServerInfo struct {
	Name       string `json:"name"`
	APIVersion int    `json:"api_version"`
	Version    string `json:"version"`
	Hostname   string `json:"hostname,omitempty"`
}
