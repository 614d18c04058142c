// Package audio plays synthesised speech. Player drives the sound card
// through oto/v3; MockPlayer simulates playback for tests and headless
// runs.
package audio
