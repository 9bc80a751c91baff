package chat

import (
	"regexp"
	"strconv"
)

// DirectiveKind identifies the action a reply's leading bracket token asks
// for. At most one kind is recognized per reply.
type DirectiveKind string

const (
	DirectiveNone         DirectiveKind = ""
	DirectiveAccept       DirectiveKind = "accept"
	DirectiveReturn       DirectiveKind = "return"
	DirectiveTransfer     DirectiveKind = "transfer"
	DirectiveAvatarSeed   DirectiveKind = "avatar_seed"
	DirectiveDeleteMoment DirectiveKind = "delete_moment"
)

// Directive is the parsed command extracted from the head of a reply. Dice is
// carried separately because it is checked on whatever text remains after the
// primary directive is stripped.
type Directive struct {
	Kind   DirectiveKind
	Amount float64 // transfer amount; 0 when unparseable
	Seed   string  // avatar seed text
	Dice   bool
}

var (
	acceptReturnRe = regexp.MustCompile(`^\[(ACCEPT|RETURN)\]\s*`)
	transferRe     = regexp.MustCompile(`^\[TRANSFER:([\d.]+)\]\s*`)
	avatarSeedRe   = regexp.MustCompile(`^\[SET_AVATAR_SEED:(.+?)\]\s*`)
	deleteMomentRe = regexp.MustCompile(`^\[DELETE_MOMENT\]\s*`)
	diceRe         = regexp.MustCompile(`^\[DICE\]\s*`)
)

// ParseDirective detects one leading directive and returns it along with the
// reply text minus the directive prefix. Priority is fixed: accept/return,
// then transfer, then avatar seed, then delete-moment; dice is checked last,
// on the remaining text, so "[ACCEPT] [DICE] hi" yields both. Text with no
// matching prefix passes through unchanged. Pure function, no side effects.
func ParseDirective(raw string) (Directive, string) {
	var d Directive
	rest := raw

	if m := acceptReturnRe.FindStringSubmatch(rest); m != nil {
		if m[1] == "ACCEPT" {
			d.Kind = DirectiveAccept
		} else {
			d.Kind = DirectiveReturn
		}
		rest = rest[len(m[0]):]
	} else if m := transferRe.FindStringSubmatch(rest); m != nil {
		d.Kind = DirectiveTransfer
		// An unparseable amount (e.g. "1.2.3") leaves Amount at zero; the
		// effect applier drops non-positive transfers silently.
		d.Amount, _ = strconv.ParseFloat(m[1], 64)
		rest = rest[len(m[0]):]
	} else if m := avatarSeedRe.FindStringSubmatch(rest); m != nil {
		d.Kind = DirectiveAvatarSeed
		d.Seed = m[1]
		rest = rest[len(m[0]):]
	} else if m := deleteMomentRe.FindStringSubmatch(rest); m != nil {
		d.Kind = DirectiveDeleteMoment
		rest = rest[len(m[0]):]
	}

	if m := diceRe.FindString(rest); m != "" {
		d.Dice = true
		rest = rest[len(m):]
	}
	return d, rest
}

// StripLeadingDirective removes one leading bracketed token of any shape from
// text. Notification previews use it so the first line shown to the user
// never starts with a raw command.
func StripLeadingDirective(text string) string {
	return leadingBracketRe.ReplaceAllString(text, "")
}

var leadingBracketRe = regexp.MustCompile(`^\[[^\]]*\]\s*`)
