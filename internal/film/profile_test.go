package film

import (
	"testing"
)

func TestProfiles_FixedOrder(t *testing.T) {
	list := Profiles()
	if len(list) != 4 {
		t.Fatalf("Expected 4 profiles, got %d", len(list))
	}

	expected := []ProfileID{ProfileNormal, ProfileBlue, ProfilePink, ProfileGreen}
	for i, id := range expected {
		if list[i].ID != id {
			t.Errorf("Profile order mismatch at %d: got %s, want %s", i, list[i].ID, id)
		}
	}
}

func TestProfileByID(t *testing.T) {
	testCases := []struct {
		name      string
		id        ProfileID
		expectErr bool
	}{
		{name: "ノーマル", id: ProfileNormal, expectErr: false},
		{name: "ブルー", id: ProfileBlue, expectErr: false},
		{name: "未知のID", id: ProfileID("sunset"), expectErr: true},
		{name: "空のID", id: ProfileID(""), expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ProfileByID(tc.id)
			if tc.expectErr {
				if err == nil {
					t.Error("エラーが期待されましたが、エラーが発生しませんでした")
				}
				return
			}
			if err != nil {
				t.Fatalf("予期しないエラーが発生しました: %v", err)
			}
			if p.ID != tc.id {
				t.Errorf("Profile ID mismatch: got %s, want %s", p.ID, tc.id)
			}
		})
	}
}

func TestProfileOverlay(t *testing.T) {
	// ピンクとグリーンだけがオーバーレイを持つ
	for _, p := range Profiles() {
		hasOverlay := p.Overlay != nil
		expectOverlay := p.ID == ProfilePink || p.ID == ProfileGreen
		if hasOverlay != expectOverlay {
			t.Errorf("Profile %s overlay mismatch: got %v, want %v", p.ID, hasOverlay, expectOverlay)
		}
	}
}

func TestRandomFrameColor(t *testing.T) {
	// 抽選結果は必ずパレット内の色になる
	for i := 0; i < 100; i++ {
		c := RandomFrameColor()
		found := false
		for _, e := range frameColorPalette {
			if e.Color == c {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("RandomFrameColor returned color outside palette: %+v", c)
		}
	}
}
