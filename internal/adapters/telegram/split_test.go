package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessageRespectsLimit(t *testing.T) {
	text := strings.Repeat("a", 3000) + "\n\n" + strings.Repeat("b", 2000) + "\n" + strings.Repeat("c", 500)

	parts := SplitMessage(text, MessageLimit)
	if len(parts) != 2 {
		t.Fatalf("ожидали 2 части, получили %d", len(parts))
	}
	for i, part := range parts {
		if n := len([]rune(part)); n > MessageLimit {
			t.Fatalf("часть %d длиннее лимита: %d", i, n)
		}
	}
	if parts[0] != strings.Repeat("a", 3000) {
		t.Fatalf("неожиданное содержимое первой части")
	}
	if !strings.HasPrefix(parts[1], "b") || !strings.HasSuffix(parts[1], strings.Repeat("c", 500)) {
		t.Fatalf("вторая часть должна содержать блоки b и c")
	}
}

func TestSplitMessageKeepsLinesTogether(t *testing.T) {
	parts := SplitMessage("#travel: 3\n#food: 1\nВсего: 4", 12)
	want := []string{"#travel: 3", "#food: 1", "Всего: 4"}
	if len(parts) != len(want) {
		t.Fatalf("ожидали %v, получили %q", want, parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Fatalf("ожидали %v, получили %q", want, parts)
		}
	}
}

func TestSplitMessageLongLine(t *testing.T) {
	parts := SplitMessage(strings.Repeat("я", 25), 10)
	if len(parts) != 3 || len([]rune(parts[2])) != 5 {
		t.Fatalf("длинная строка должна резаться по лимиту, получили %q", parts)
	}
}

func TestSplitMessageShortText(t *testing.T) {
	parts := SplitMessage("hello world", 0)
	if len(parts) != 1 || parts[0] != "hello world" {
		t.Fatalf("ожидали одну часть, получили %q", parts)
	}
}

func TestSplitMessageEmpty(t *testing.T) {
	if parts := SplitMessage("   \n  ", MessageLimit); len(parts) != 0 {
		t.Fatalf("для пустого текста частей быть не должно, получили %d", len(parts))
	}
}
