package agent

import "fmt"

var nameAdjectives = []string{
	"Golden", "Crimson", "Midnight", "Electric", "Shadow",
	"Neon", "Frozen", "Blazing", "Silver", "Obsidian",
}

var nameNouns = []string{
	"Claw", "Showdown", "Rumble", "Gauntlet", "Arena",
	"Circuit", "Throwdown", "Reckoning", "Sprint", "Table",
}

// FlairName generates a deterministic, human-readable tournament name from
// the cycle seed, in the style of the original agent's NAME_TEMPLATES.
func FlairName(seed uint64) string {
	r := newRNG(seed)
	adj := nameAdjectives[r.intn(len(nameAdjectives))]
	noun := nameNouns[r.intn(len(nameNouns))]
	return adj + " " + noun
}

// CreationReason composes the one-line operator-facing audit string logged
// alongside every arena the agent creates.
func CreationReason(choice TierChoice, fillRate float64) string {
	window := "off-peak"
	if choice.Peak {
		window = "peak-hours"
	}
	return fmt.Sprintf("%s confidence %.2f, %s fill-rate %.0f%%", window, choice.Confidence, choice.Policy.Name, fillRate*100)
}
