package feed

import (
	"strconv"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/trail"
)

// ParseVisitLine parses one shell-quoted visit line:
//
//	<ref> <title> [image]
//
// Quoting follows shell rules, so titles with spaces are double-quoted. A
// ref of "-" means the visit carries no external id.
func ParseVisitLine(line string) (trail.Visit, error) {
	tokens, err := shellquote.Split(line)
	if err != nil {
		return trail.Visit{}, errors.Wrapf(errors.ErrInvalidRequest, "visit line %q: %s", line, err)
	}
	if len(tokens) < 2 || len(tokens) > 3 {
		return trail.Visit{}, errors.Wrapf(errors.ErrInvalidRequest,
			"visit line %q: want <ref> <title> [image], got %d fields", line, len(tokens))
	}

	v := trail.Visit{Ref: refToken(tokens[0]), Title: tokens[1]}
	if len(tokens) == 3 {
		v.Image = tokens[2]
	}
	return v, nil
}

// ParseNeighborLine parses one shell-quoted neighbor line:
//
//	<ref> <title> [image] [score]
//
// A third field that parses as a number is the similarity score; otherwise
// it is the image. With four fields the order is image then score.
func ParseNeighborLine(line string) (trail.Neighbor, error) {
	tokens, err := shellquote.Split(line)
	if err != nil {
		return trail.Neighbor{}, errors.Wrapf(errors.ErrInvalidRequest, "neighbor line %q: %s", line, err)
	}
	if len(tokens) < 2 || len(tokens) > 4 {
		return trail.Neighbor{}, errors.Wrapf(errors.ErrInvalidRequest,
			"neighbor line %q: want <ref> <title> [image] [score], got %d fields", line, len(tokens))
	}

	n := trail.Neighbor{Ref: refToken(tokens[0]), Title: tokens[1]}
	switch len(tokens) {
	case 3:
		if score, err := strconv.ParseFloat(tokens[2], 64); err == nil {
			n.Score = &score
		} else {
			n.Image = tokens[2]
		}
	case 4:
		n.Image = tokens[2]
		score, err := strconv.ParseFloat(tokens[3], 64)
		if err != nil {
			return trail.Neighbor{}, errors.Wrapf(errors.ErrInvalidRequest,
				"neighbor line %q: score %q is not a number", line, tokens[3])
		}
		n.Score = &score
	}
	return n, nil
}

// refToken maps the "-" placeholder to an absent ref.
func refToken(tok string) string {
	if tok == "-" {
		return ""
	}
	return tok
}
