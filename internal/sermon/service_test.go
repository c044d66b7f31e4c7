package sermon_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/content"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/models"
	"github.com/starford/hunlearn/internal/sermon"
	"github.com/starford/hunlearn/internal/store"
	"github.com/starford/hunlearn/internal/testutil"
)

func setup(t *testing.T) *sermon.Service {
	t.Helper()
	db := testutil.TestDB(t)
	clock := testutil.FixedClock(db)
	cat := testutil.TestContent(t, db)
	testutil.CreateUser(t, db, "u1", "u1@example.com")
	testutil.CreateUser(t, db, "u2", "u2@example.com")
	game := gamification.NewService(db, nil, testutil.Logger())
	game.SetClock(clock.Now)
	svc := sermon.NewService(db, cat, game, testutil.Logger())
	svc.SetClock(clock.Now)
	return svc
}

func draftInput() sermon.DraftInput {
	return sermon.DraftInput{
		Title:              models.BilingualText{Hungarian: "Isten kegyelme", Korean: "하나님의 은혜"},
		ScriptureReference: "Ef 2,8-9",
		Content: models.SermonContent{
			Introduction: "Kedves Testvérek!",
			MainBody:     "Kegyelemből van üdvösségetek.",
		},
	}
}

func TestDraftCRUDAndVersioning(t *testing.T) {
	svc := setup(t)

	d, err := svc.Create("u1", draftInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Version != 1 || d.Status != models.DraftStatusDraft {
		t.Errorf("new draft = %+v", d)
	}
	if _, err := svc.Get("u2", d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("other user's draft err = %v, want ErrNotFound", err)
	}

	in := draftInput()
	in.Topic = "kegyelem"
	upd, err := svc.Update("u1", d.ID, in, 1)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if upd.Version != 2 || upd.Topic != "kegyelem" {
		t.Errorf("updated = %+v", upd)
	}
	if _, err := svc.Update("u1", d.ID, in, 1); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale update err = %v, want ErrConflict", err)
	}
	if _, err := svc.Update("u1", d.ID, in, 0); err != nil {
		t.Errorf("unconditional update: %v", err)
	}

	if err := svc.Delete("u1", d.ID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Get("u1", d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.DraftStatusArchived {
		t.Errorf("status after delete = %s", got.Status)
	}
}

func TestCreateRequiresBothTitles(t *testing.T) {
	svc := setup(t)
	in := draftInput()
	in.Title.Korean = ""
	if _, err := svc.Create("u1", in); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCompleteAwardsOnce(t *testing.T) {
	svc := setup(t)
	d, err := svc.Create("u1", draftInput())
	if err != nil {
		t.Fatal(err)
	}

	done, award, err := svc.SetStatus("u1", d.ID, models.DraftStatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	// 100 base x1.2 theological.
	if award == nil || award.Points != 120 {
		t.Errorf("award = %+v", award)
	}

	if _, _, err := svc.SetStatus("u1", d.ID, models.DraftStatusDraft); err != nil {
		t.Fatal(err)
	}
	_, award, err = svc.SetStatus("u1", d.ID, models.DraftStatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if award != nil {
		t.Errorf("second completion awarded %+v", award)
	}

	if _, _, err := svc.SetStatus("u1", d.ID, "PUBLISHED"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad status err = %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	svc := setup(t)
	d, err := svc.Create("u1", draftInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Update("u1", d.ID, draftInput(), 0); err != nil {
		t.Fatal(err)
	}

	cp, err := svc.Duplicate("u1", d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cp.ID == d.ID || cp.Version != 1 || cp.Status != models.DraftStatusDraft {
		t.Errorf("copy = %+v", cp)
	}
	if cp.Title.Hungarian != "Isten kegyelme (másolat)" || cp.Title.Korean != "하나님의 은혜 (복사본)" {
		t.Errorf("copy title = %+v", cp.Title)
	}
	if cp.Content.MainBody != d.Content.MainBody {
		t.Errorf("content not copied")
	}
	if _, err := svc.Duplicate("u2", d.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("duplicate of other's draft err = %v", err)
	}
}

func TestListSearchAndStats(t *testing.T) {
	svc := setup(t)
	for _, title := range []string{"Hit", "Remény", "Szeretet"} {
		in := draftInput()
		in.Title.Hungarian = title
		if _, err := svc.Create("u1", in); err != nil {
			t.Fatal(err)
		}
	}

	list, total, err := svc.List(store.DraftFilter{UserID: "u1", Sort: "title"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || list[0].Title.Hungarian != "Hit" || list[2].Title.Hungarian != "Szeretet" {
		t.Errorf("list = %d drafts, first %q", total, list[0].Title.Hungarian)
	}
	if _, _, err := svc.List(store.DraftFilter{UserID: "u1", Sort: "popular"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad sort err = %v", err)
	}

	found, total, err := svc.Search("u1", "Remény", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || found[0].Title.Hungarian != "Remény" {
		t.Errorf("search = %+v", found)
	}
	if _, _, err := svc.Search("u1", "  ", 0, 0); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty query err = %v", err)
	}

	st, err := svc.Stats("u1")
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 3 || st.ByStatus[models.DraftStatusDraft] != 3 || st.UpdatedThisMonth != 3 {
		t.Errorf("stats = %+v", st)
	}
	// "Kedves Testvérek!" + "Kegyelemből van üdvösségetek."
	if st.AverageWords != 5 {
		t.Errorf("average words = %d, want 5", st.AverageWords)
	}
}

func TestApplyTemplate(t *testing.T) {
	svc := setup(t)
	tpl, err := svc.Template("tpl-expository")
	if err != nil {
		t.Fatal(err)
	}
	d, err := svc.ApplyTemplate("u1", sermon.ApplyTemplateInput{
		TemplateID: "tpl-expository",
		Title:      models.BilingualText{Hungarian: "A jó pásztor", Korean: "선한 목자"},
	})
	if err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	if len(d.Content.Outline) != len(tpl.Sections) || d.Metadata.EstimatedDuration != tpl.EstimatedMinutes {
		t.Errorf("draft = %+v", d)
	}
	if _, err := svc.ApplyTemplate("u1", sermon.ApplyTemplateInput{TemplateID: "nope", Title: d.Title}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown template err = %v", err)
	}
}

func TestTemplatesFilter(t *testing.T) {
	svc := setup(t)
	all := svc.Templates(content.TemplateFilter{})
	if len(all) == 0 {
		t.Fatal("no templates")
	}
	for _, tpl := range svc.Templates(content.TemplateFilter{Occasion: "sunday"}) {
		if !slices.Contains(tpl.Occasions, "sunday") {
			t.Errorf("template %s does not match occasion", tpl.ID)
		}
	}
}

func TestGenerateOutline(t *testing.T) {
	svc := setup(t)

	if _, err := svc.GenerateOutline(sermon.OutlineInput{UserLevel: "A2"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("missing topic err = %v", err)
	}

	out, err := svc.GenerateOutline(sermon.OutlineInput{
		Topic:     sermon.OutlineTopic{Korean: "은혜", SermonLength: "short"},
		UserLevel: "A2",
	})
	if err != nil {
		t.Fatalf("GenerateOutline: %v", err)
	}
	if out.TemplateID != "tpl-topical" {
		t.Errorf("template = %s, want the A2 template", out.TemplateID)
	}
	if out.TotalMinutes < 13 || out.TotalMinutes > 17 {
		t.Errorf("total minutes = %d, want about 15", out.TotalMinutes)
	}
	if len(out.Terms) == 0 || out.Terms[0].Hungarian != "kegyelem" {
		t.Errorf("terms = %+v", out.Terms)
	}
	if out.Title.Hungarian != "Kegyelem" || out.Title.Korean != "은혜" {
		t.Errorf("title = %+v", out.Title)
	}

	byScripture, err := svc.GenerateOutline(sermon.OutlineInput{
		Topic:      sermon.OutlineTopic{Scripture: "Jn 10,11"},
		UserLevel:  "B1",
		TemplateID: "tpl-expository",
	})
	if err != nil {
		t.Fatal(err)
	}
	if byScripture.Title.Hungarian != "Igehirdetés: Jn 10,11" || len(byScripture.Terms) != 0 {
		t.Errorf("scripture outline = %+v", byScripture)
	}
}

func TestCheckGrammarFindsTerms(t *testing.T) {
	svc := setup(t)
	rep, err := svc.CheckGrammar(sermon.CheckInput{Text: "A kegyelem és a hit ajándék."})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(rep.Terms, "kegyelem") || !slices.Contains(rep.Terms, "hit") {
		t.Errorf("terms = %v", rep.Terms)
	}
	if _, err := svc.CheckGrammar(sermon.CheckInput{Text: "Szöveg.", Level: "Z9"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad level err = %v", err)
	}
}
