package normalize

import "sort"

// builtinNicknames maps an informal first name to its formal equivalents.
var builtinNicknames = map[string][]string{
	"abby":    {"abigail"},
	"al":      {"albert", "alan", "alfred", "alexander"},
	"alex":    {"alexander", "alexandra", "alexis"},
	"andy":    {"andrew"},
	"angie":   {"angela"},
	"ben":     {"benjamin"},
	"beth":    {"elizabeth"},
	"betty":   {"elizabeth"},
	"bill":    {"william"},
	"billy":   {"william"},
	"bob":     {"robert"},
	"bobby":   {"robert"},
	"brad":    {"bradley"},
	"cathy":   {"catherine", "cathleen"},
	"charlie": {"charles"},
	"chris":   {"christopher", "christine", "christina"},
	"chuck":   {"charles"},
	"cindy":   {"cynthia"},
	"dan":     {"daniel"},
	"danny":   {"daniel"},
	"dave":    {"david"},
	"debbie":  {"deborah"},
	"dick":    {"richard"},
	"don":     {"donald"},
	"ed":      {"edward", "edwin"},
	"eddie":   {"edward"},
	"fred":    {"frederick"},
	"frank":   {"francis", "franklin"},
	"greg":    {"gregory"},
	"hank":    {"henry"},
	"jack":    {"john"},
	"jake":    {"jacob"},
	"jamie":   {"james"},
	"jeff":    {"jeffrey"},
	"jen":     {"jennifer"},
	"jenny":   {"jennifer"},
	"jerry":   {"gerald", "jerome"},
	"jim":     {"james"},
	"jimmy":   {"james"},
	"joe":     {"joseph"},
	"joey":    {"joseph"},
	"johnny":  {"john"},
	"jon":     {"jonathan"},
	"kate":    {"katherine", "kathleen"},
	"katie":   {"katherine", "kathleen"},
	"kathy":   {"katherine", "kathleen"},
	"ken":     {"kenneth"},
	"kim":     {"kimberly"},
	"larry":   {"lawrence"},
	"liz":     {"elizabeth"},
	"maggie":  {"margaret"},
	"matt":    {"matthew"},
	"meg":     {"margaret"},
	"mike":    {"michael"},
	"mickey":  {"michael"},
	"nate":    {"nathan", "nathaniel"},
	"nick":    {"nicholas"},
	"pam":     {"pamela"},
	"pat":     {"patrick", "patricia"},
	"patty":   {"patricia"},
	"peggy":   {"margaret"},
	"pete":    {"peter"},
	"phil":    {"philip", "phillip"},
	"ray":     {"raymond"},
	"rich":    {"richard"},
	"rick":    {"richard"},
	"rob":     {"robert"},
	"ron":     {"ronald"},
	"sam":     {"samuel", "samantha"},
	"sandy":   {"sandra"},
	"steve":   {"steven", "stephen"},
	"sue":     {"susan", "suzanne"},
	"susie":   {"susan"},
	"ted":     {"theodore", "edward"},
	"tim":     {"timothy"},
	"tom":     {"thomas"},
	"tommy":   {"thomas"},
	"tony":    {"anthony"},
	"vicky":   {"victoria"},
	"will":    {"william"},
	"zach":    {"zachary"},
}

// NicknameTable is a read-only bidirectional nickname index.
type NicknameTable struct {
	formal   map[string][]string // informal -> formal names
	informal map[string][]string // formal -> informal names
}

// NewNicknameTable builds a table from an informal->formal mapping. Keys and
// values are normalized with NormalizeName.
func NewNicknameTable(informalToFormal map[string][]string) *NicknameTable {
	t := &NicknameTable{
		formal:   make(map[string][]string, len(informalToFormal)),
		informal: make(map[string][]string),
	}
	for nick, formals := range informalToFormal {
		n := NormalizeName(nick)
		if n == "" {
			continue
		}
		for _, f := range formals {
			f = NormalizeName(f)
			if f == "" {
				continue
			}
			t.formal[n] = append(t.formal[n], f)
			t.informal[f] = append(t.informal[f], n)
		}
	}
	return t
}

// DefaultNicknameTable returns a table over the built-in US nickname list.
func DefaultNicknameTable() *NicknameTable {
	return NewNicknameTable(builtinNicknames)
}

// Expand returns the sorted, deduplicated union of the normalized input, its
// formal expansions and every informal name whose expansions contain it.
// An empty input yields an empty set.
func (t *NicknameTable) Expand(firstName string) []string {
	n := NormalizeName(firstName)
	if n == "" {
		return nil
	}

	seen := map[string]bool{n: true}
	for _, f := range t.formal[n] {
		seen[f] = true
	}
	for _, i := range t.informal[n] {
		seen[i] = true
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
