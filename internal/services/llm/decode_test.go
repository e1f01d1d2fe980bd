package llm

import "testing"

func TestDecodeJSONPayload(t *testing.T) {
	type doc struct {
		Confidence float64 `json:"confidence"`
	}

	cases := []struct {
		name    string
		content string
		want    float64
		wantErr bool
	}{
		{name: "plain", content: `{"confidence":0.9}`, want: 0.9},
		{name: "fenced", content: "```json\n{\"confidence\":0.6}\n```", want: 0.6},
		{name: "bare fence", content: "```\n{\"confidence\":0.4}\n```", want: 0.4},
		{name: "surrounding prose", content: `Here is my assessment: {"confidence":0.5} hope that helps`, want: 0.5},
		{name: "prose only", content: "the subject looks alert", wantErr: true},
		{name: "empty", content: "   ", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var target doc
			err := DecodeJSONPayload(tc.content, &target)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSONPayload: %v", err)
			}
			if target.Confidence != tc.want {
				t.Fatalf("confidence = %v, want %v", target.Confidence, tc.want)
			}
		})
	}
}
