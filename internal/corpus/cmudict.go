package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

// ARPAbet maps CMU phoneme codes to single letters so each phoneme is one
// rune of the encoded word.
var ARPAbet = map[string]string{
	"AA": "a", "AE": "@", "AH": "A", "AO": "c", "AW": "W", "AY": "Y",
	"EH": "E", "ER": "R", "EY": "e", "IH": "I", "IY": "i", "OW": "o",
	"OY": "O", "UH": "U", "UW": "u",
	"B": "b", "CH": "C", "D": "d", "DH": "D", "F": "f", "G": "g",
	"HH": "h", "JH": "J", "K": "k", "L": "l", "M": "m", "N": "n",
	"NG": "G", "P": "p", "R": "r", "S": "s", "SH": "S", "T": "t",
	"TH": "T", "V": "v", "W": "w", "WH": "H", "Y": "y", "Z": "z",
	"ZH": "Z",
}

// ipa renders the single-letter alphabet as IPA symbols.
var ipa = map[rune]string{
	'a': "ɑ", '@': "æ", 'A': "ʌ", 'c': "ɔ", 'W': "aʊ", 'Y': "aɪ",
	'E': "ɛ", 'R': "ɝ", 'e': "eɪ", 'I': "ɪ", 'i': "i", 'o': "oʊ",
	'O': "ɔɪ", 'U': "ʊ", 'u': "u",
	'b': "b", 'C': "tʃ", 'd': "d", 'D': "ð", 'f': "f", 'g': "ɡ",
	'h': "h", 'J': "dʒ", 'k': "k", 'l': "l", 'm': "m", 'n': "n",
	'G': "ŋ", 'p': "p", 'r': "ɹ", 's': "s", 'S': "ʃ", 't': "t",
	'T': "θ", 'v': "v", 'w': "w", 'H': "ʍ", 'y': "j", 'z': "z",
	'Z': "ʒ",
}

// IPA renders an encoded phonetic token in IPA. Runes outside the alphabet
// pass through unchanged.
func IPA(token string) string {
	var b strings.Builder
	for _, r := range token {
		if s, ok := ipa[r]; ok {
			b.WriteString(s)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CMUDict is the CMU pronouncing dictionary re-encoded with ARPAbet.
type CMUDict struct {
	words       []string
	translation *TranslationTable
}

// ReadCMUDict parses cmudict-0.7b style lines: "WORD  PH1 PH2 ...". Comment
// lines and entries for punctuation are skipped, stress digits are dropped and
// alternate pronunciation markers ("WORD(1)") are folded into the base word.
func ReadCMUDict(r io.Reader) (*CMUDict, error) {
	d := &CMUDict{translation: NewTranslationTable()}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if first := []rune(line)[0]; !unicode.IsLetter(first) {
			continue
		}
		word, phones, ok := strings.Cut(line, "  ")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: missing phoneme separator", apperrors.ErrInvalidCorpus, lineNo)
		}
		token, err := encodePhones(phones)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", apperrors.ErrInvalidCorpus, lineNo, err)
		}
		if base, _, alt := strings.Cut(word, "("); alt {
			word = base
		}
		d.words = append(d.words, token)
		d.translation.Add(token, strings.ToLower(word))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning dictionary: %w", err)
	}
	d.words = dedupe(d.words)
	return d, nil
}

func encodePhones(phones string) (string, error) {
	var b strings.Builder
	for _, ph := range strings.Fields(phones) {
		code, ok := ARPAbet[strings.TrimRight(ph, "0123456789")]
		if !ok {
			return "", fmt.Errorf("unknown phoneme %q", ph)
		}
		b.WriteString(code)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no phonemes")
	}
	return b.String(), nil
}

func (d *CMUDict) Name() string                   { return FormatCMUDict }
func (d *CMUDict) Words() []string                { return d.words }
func (d *CMUDict) Translation() *TranslationTable { return d.translation }
