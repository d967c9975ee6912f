// Package prompt loads the sentence list a recording session works
// through: plain UTF-8 text, one prompt per non-empty line, addressed
// by 1-based position.
//
// A built-in set of 35 amateur-radio sentences ships as the default so
// a fresh checkout can start recording without writing a list first.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrEmpty is returned when the prompt file exists but contains no
// usable lines.
var ErrEmpty = errors.New("prompt list has no usable lines")

// Load reads prompts from path, trimming whitespace and dropping empty
// lines. A missing file surfaces the underlying fs.ErrNotExist; a file
// with nothing usable fails with ErrEmpty.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening prompt list: %w", err)
	}
	defer f.Close()

	var prompts []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading prompt list: %w", err)
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return prompts, nil
}

// Default returns a copy of the built-in sentence set.
func Default() []string {
	out := make([]string, len(defaultPrompts))
	copy(out, defaultPrompts)
	return out
}

// WriteDefault creates path containing the built-in set. It is a no-op
// when the file already exists, so a user's edited list is never
// clobbered.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking prompt list: %w", err)
	}
	data := strings.Join(defaultPrompts, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing prompt list: %w", err)
	}
	return nil
}

// The default set leans on amateur-radio phrasing but is chosen for
// phoneme coverage: callsign phonetics, numbers, questions, and a few
// longer narrative sentences for prosody.
var defaultPrompts = []string{
	// Contest and CQ calls
	"CQ Contest, CQ Contest, this is Whiskey Seven India Yankee.",
	"Alpha Bravo Three Charlie Delta calling CQ on twenty meters.",
	"Sierra Oscar Tango Alpha calling and listening.",

	// Signal reports and exchanges
	"Whiskey Seven India Yankee, you're five nine in zone five.",
	"You're five nine nine, name here is Mike, Mike.",
	"Your signal is five seven here in Virginia.",
	"November One Mike Mike, you're five nine, QSL?",
	"That's five nine nine, contest number two three four.",

	// Locations and technical details
	"My QTH is Grid Square Echo Mike Seven Three.",
	"Zone one four, state is California, over.",
	"Running one hundred watts to a dipole antenna.",

	// Procedural phrases
	"Roger, thanks for the contact, seven three.",
	"Kilo Four Zulu Echo Charlie, go ahead please.",
	"Frequency is clear, go ahead with your call.",
	"Good luck in the contest, Whiskey Seven India Yankee clear.",
	"Confirm your callsign is November Seven Bravo Romeo Charlie?",
	"Last two of serial number are eight seven.",

	// Questions and varied structures
	"What's your power output and antenna configuration?",
	"Can you hear me through the static and interference?",
	"Which band are you planning to operate on tonight?",
	"Have you worked any DX stations this morning?",
	"Are you using a vertical or horizontal polarization?",

	// Weather and conditions
	"The weather here is cloudy with occasional showers.",
	"Propagation conditions are excellent on fifteen meters today.",
	"Heavy thunderstorms are affecting reception in the northeast.",

	// Equipment and setup
	"My transceiver is a modern digital radio with DSP.",
	"The antenna tuner matches impedance perfectly.",
	"I'm adjusting the microphone gain for better audio quality.",
	"Please switch to the upper sideband for this contact.",

	// Conversational and natural speech
	"I've been a licensed amateur radio operator for twelve years.",
	"The local club meets every Thursday evening at seven.",
	"Your audio sounds crisp and clear on my receiver.",
	"I enjoy chasing rare DX entities and collecting QSL cards.",
	"My favorite mode is CW, though I also enjoy phone contacts.",

	// Longer narrative sentences
	"During the contest, I managed to work stations in over forty countries across six continents.",
}
