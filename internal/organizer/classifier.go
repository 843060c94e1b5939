package organizer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/docksort/internal/category"
)

// Classifier maps files and directories to categories.
type Classifier struct {
	logger zerolog.Logger
	sniff  func(path string) (string, error)
}

// NewClassifier returns a classifier that sniffs file signatures with
// mimetype.
func NewClassifier(logger zerolog.Logger) *Classifier {
	return &Classifier{logger: logger, sniff: Sniff}
}

// ForFile classifies a single file by the extension of its name.
func (c *Classifier) ForFile(name string) category.Category {
	return category.ForName(name)
}

// ForDir classifies a directory by majority vote over every file below it.
// Each file contributes its sniffed type, or its extension when the
// content has no recognizable signature. Unreadable files are skipped. A
// directory without any usable file is Other. The walk stops with
// ctx.Err() once ctx is done.
func (c *Classifier) ForDir(ctx context.Context, dir string) (category.Category, error) {
	tags, err := c.tags(ctx, dir)
	if err != nil {
		return category.Other, err
	}
	if len(tags) == 0 {
		return category.Other, nil
	}
	return category.ForExtension(majority(tags)), nil
}

func (c *Classifier) tags(ctx context.Context, dir string) ([]string, error) {
	var tags []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := os.Stat(path)
		if err != nil {
			// Cloud placeholders and dangling links end up here.
			c.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
			return nil
		}

		tag := ""
		if info.Mode().IsRegular() {
			tag, err = c.sniff(path)
			if err != nil {
				c.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
				return nil
			}
		}
		if tag == "" {
			tag = category.Extension(d.Name())
		}
		if tag != "" {
			tags = append(tags, tag)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn().Err(err).Str("path", dir).Msg("directory walk aborted")
	}
	return tags, nil
}

// sniffAliases renames detector extensions to the names used by the
// extension table.
var sniffAliases = map[string]string{
	"oga":  "ogg",
	"ogv":  "ogg",
	"ogx":  "ogg",
	"opus": "ogg",
	"asf":  "wmv",
	"m4v":  "mp4",
}

// Sniff detects a file type from its leading bytes and returns the
// matching extension without the dot, spelled the way the extension
// table spells it. Text of any kind and unrecognized binary content have
// no signature and yield "", as does a signature whose type and parent
// types are all missing from the extension table.
func Sniff(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return "", nil
		}
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("application/octet-stream") {
			break
		}
		tag := strings.ToLower(strings.TrimPrefix(m.Extension(), "."))
		if alias, ok := sniffAliases[tag]; ok {
			tag = alias
		}
		if category.ForExtension(tag) != category.Other {
			return tag, nil
		}
	}
	return "", nil
}

// majority returns the most frequent tag. Ties go to the tag seen first.
func majority(tags []string) string {
	counts := make(map[string]int, len(tags))
	var order []string
	for _, t := range tags {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	best, bestCount := "", 0
	for _, t := range order {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best
}
