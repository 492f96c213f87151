package radiator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// View is the configuration of one radiator. Exclude and Include are expected
// to be validated when the configuration is loaded.
type View struct {
	Name    string
	Palette Palette
	// Exclude hides jobs whose full name matches it entirely.
	Exclude *regexp.Regexp
	// Include, when non-empty, shows only jobs whose full name matches one of
	// these doublestar patterns.
	Include       []string
	GroupByPrefix bool
	// Claims is nil when claim tracking is not installed.
	Claims ClaimService
}

// CompileExclude compiles an exclude pattern so that it must match a whole job
// name. An empty pattern returns nil.
func CompileExclude(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
	}
	return re, nil
}

// QueuePositions numbers queue items from 1 in queue order.
func QueuePositions(queue []string) map[string]int {
	positions := make(map[string]int, len(queue))
	for i, item := range queue {
		if _, seen := positions[item]; !seen {
			positions[item] = i + 1
		}
	}
	return positions
}

// Contents builds a flat group of every visible job of src. The queue is read
// first so that every entry of the render sees the same queue positions.
func (v *View) Contents(ctx context.Context, src Source) (*Group, error) {
	queue, err := src.Queue(ctx)
	if err != nil {
		return nil, fmt.Errorf("read build queue: %w", err)
	}
	rc := &RenderContext{
		Palette:        v.Palette.WithDefaults(),
		QueuePositions: QueuePositions(queue),
		Claims:         v.Claims,
	}

	items, err := src.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	slog.Debug("collecting items for view", "view", v.Name, "items", len(items), "queued", len(queue))

	root := NewGroup(v.Name)
	if err := v.addItems(ctx, rc, items, root); err != nil {
		return nil, err
	}
	return root, nil
}

// Render returns Contents, grouped by prefix when the view asks for it.
func (v *View) Render(ctx context.Context, src Source) (*Group, error) {
	return v.RenderGrouped(ctx, src, v.GroupByPrefix)
}

func (v *View) RenderGrouped(ctx context.Context, src Source, grouped bool) (*Group, error) {
	flat, err := v.Contents(ctx, src)
	if err != nil {
		return nil, err
	}
	if !grouped {
		return flat, nil
	}
	return GroupByPrefix(flat)
}

func (v *View) addItems(ctx context.Context, rc *RenderContext, items []Item, root *Group) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if item == nil {
			continue
		}
		if folder, ok := item.(Folder); ok {
			if err := v.addItems(ctx, rc, folder.Items(), root); err != nil {
				return err
			}
		}
		job, ok := item.(Job)
		if !ok || job.Disabled() || !v.visible(job.FullName()) {
			continue
		}
		if err := root.Add(NewEntry(rc, job)); err != nil {
			return err
		}
	}
	return nil
}

func (v *View) visible(fullName string) bool {
	if v.Exclude != nil && v.Exclude.MatchString(fullName) {
		slog.Debug("job excluded", "view", v.Name, "job", fullName)
		return false
	}
	if len(v.Include) == 0 {
		return true
	}
	for _, pattern := range v.Include {
		if ok, err := doublestar.Match(pattern, fullName); err == nil && ok {
			return true
		}
	}
	return false
}
