package fuzzy

import "testing"

func TestScoreIdenticalPhrasesIsMaximal(t *testing.T) {
	if s := Score("open notepad", "open notepad"); s < 99.9 {
		t.Fatalf("Score() = %v, want ~100 for identical phrases", s)
	}
}

func TestScoreToleratesFillerWords(t *testing.T) {
	s := Score("hey assist, uh, open notepad", "open notepad")
	if s < 85 {
		t.Fatalf("Score() = %v, want >= 85 despite filler words", s)
	}
}

func TestScoreUnrelatedPhrasesIsLow(t *testing.T) {
	s := Score("what is the weather today", "open notepad")
	if s > 60 {
		t.Fatalf("Score() = %v, want low score for unrelated phrases", s)
	}
}

func TestMatchesRespectsThreshold(t *testing.T) {
	if !Matches("open notepad please", "open notepad", 85) {
		t.Fatal("expected match at threshold 85")
	}
	if Matches("completely different request", "open notepad", 85) {
		t.Fatal("expected no match for unrelated phrase at threshold 85")
	}
}

func TestAnyMatchesActivationPhrases(t *testing.T) {
	candidates := []string{"hey assist", "okay assist"}
	if !AnyMatches("um, hey assist can you help", candidates, 85) {
		t.Fatal("expected activation phrase to match despite filler words")
	}
	if AnyMatches("goodbye forever", candidates, 85) {
		t.Fatal("expected no match for unrelated utterance")
	}
}
