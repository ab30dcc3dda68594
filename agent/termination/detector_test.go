package termination

import "testing"

func TestMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	d := New("")
	if d.Phrase() != DefaultPhrase {
		t.Fatalf("unexpected phrase: %s", d.Phrase())
	}

	cases := []struct {
		text string
		want bool
	}{
		{text: "report finished. TASK_DONE", want: true},
		{text: "all good task_done", want: true},
		{text: "Task_Done!", want: true},
		{text: "报告已完成。TASK_DONE", want: true},
		{text: "task done", want: false},
		{text: "nothing to see here, TASKDONE", want: false},
		{text: "", want: false},
	}
	for _, tc := range cases {
		if got := d.Match(tc.text); got != tc.want {
			t.Fatalf("Match(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestCustomPhrase(t *testing.T) {
	t.Parallel()

	d := New("  FIN  ")
	if !d.Match("we are fin") {
		t.Fatal("expected custom phrase to match")
	}
	if d.Match("TASK_DONE") {
		t.Fatal("default phrase must not match a custom detector")
	}
}

func TestStripSentences(t *testing.T) {
	t.Parallel()

	d := New(DefaultPhrase)
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "latin sentences",
			in:   "Revenue grew 12%. Margin held at 3.5 points. TASK_DONE",
			want: "Revenue grew 12%. Margin held at 3.5 points.",
		},
		{
			name: "cjk sentences",
			in:   "营收增长了。报告完成 TASK_DONE。请查收！",
			want: "营收增长了。请查收！",
		},
		{
			name: "only the phrase",
			in:   "TASK_DONE",
			want: "",
		},
		{
			name: "newline separated",
			in:   "Summary line\ntask_done\nClosing note",
			want: "Summary line\nClosing note",
		},
		{
			name: "no phrase",
			in:   "  plain answer  ",
			want: "plain answer",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := d.StripSentences(tc.in); got != tc.want {
				t.Fatalf("StripSentences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
