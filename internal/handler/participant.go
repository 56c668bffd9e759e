package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/config"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/middleware"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/model"
	"github.com/BetulAlbayrak1999/ramadan-program-management-basira-org/internal/store"
)

// ParticipantHandler serves the daily card endpoints used by participants.
type ParticipantHandler struct {
	Cfg config.Config
}

func NewParticipantHandler(cfg config.Config) *ParticipantHandler {
	return &ParticipantHandler{Cfg: cfg}
}

type dailyCardReq struct {
	Date                 string  `json:"date"`
	Quran                float64 `json:"quran"`
	Tadabbur             float64 `json:"tadabbur"`
	Duas                 float64 `json:"duas"`
	Taraweeh             float64 `json:"taraweeh"`
	Tahajjud             float64 `json:"tahajjud"`
	Duha                 float64 `json:"duha"`
	Rawatib              float64 `json:"rawatib"`
	MainLesson           float64 `json:"main_lesson"`
	RequiredLesson       float64 `json:"required_lesson"`
	EnrichmentLesson     float64 `json:"enrichment_lesson"`
	CharityWorship       float64 `json:"charity_worship"`
	ExtraWork            float64 `json:"extra_work"`
	ExtraWorkDescription string  `json:"extra_work_description"`
}

func (r *dailyCardReq) scores() map[string]float64 {
	return map[string]float64{
		"quran": r.Quran, "tadabbur": r.Tadabbur, "duas": r.Duas,
		"taraweeh": r.Taraweeh, "tahajjud": r.Tahajjud, "duha": r.Duha,
		"rawatib": r.Rawatib, "main_lesson": r.MainLesson,
		"required_lesson": r.RequiredLesson, "enrichment_lesson": r.EnrichmentLesson,
		"charity_worship": r.CharityWorship, "extra_work": r.ExtraWork,
	}
}

// SaveCard records one day's scores. A date can only be submitted once;
// there is no editing, which keeps the leaderboard honest.
func (h *ParticipantHandler) SaveCard(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	var req dailyCardReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cardDate, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if cardDate.After(today()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "لا يمكن إدخال بطاقة بتاريخ مستقبلي"})
	}
	if cardDate.Before(h.Cfg.ProgramStart) || cardDate.After(h.Cfg.ProgramEnd) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "لا يمكن إدخال بطاقة خارج فترة البرنامج الرمضاني (19 فبراير - 19 مارس)"})
	}
	for field, v := range req.scores() {
		if v < 0 || v > 10 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "قيمة غير صالحة للحقل " + field})
		}
	}

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := store.NewQuery[model.DailyCard](sess).
		FilterBy("user_id", user.ID).
		FilterBy("date", cardDate.Format(store.DateLayout)).
		First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if existing != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "تم إدخال بطاقة هذا اليوم مسبقاً ولا يمكن تعديلها"})
	}

	now := time.Now().UTC()
	desc := req.ExtraWorkDescription
	card := &model.DailyCard{
		UserID:               user.ID,
		Date:                 cardDate,
		ExtraWorkDescription: &desc,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for field, v := range req.scores() {
		card.SetScore(field, v)
	}

	sess.Add(card)
	if err := sess.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "تم حفظ البطاقة", "card": card.Response()})
}

// GetCard returns the card for one date, or null when none was submitted.
func (h *ParticipantHandler) GetCard(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	cardDate, err := parseDate(c.Param("card_date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}

	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	card, err := store.NewQuery[model.DailyCard](sess).
		FilterBy("user_id", user.ID).
		FilterBy("date", cardDate.Format(store.DateLayout)).
		First(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if card == nil {
		return c.JSON(http.StatusOK, echo.Map{"card": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"card": card.Response()})
}

// ListCards returns the user's cards newest first, optionally bounded by
// date_from and date_to query parameters.
func (h *ParticipantHandler) ListCards(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	q := store.NewQuery[model.DailyCard](sess).FilterBy("user_id", user.ID)
	if from := c.QueryParam("date_from"); from != "" {
		d, err := parseDate(from)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_from"})
		}
		q = q.Filter(store.Ge("date", d.Format(store.DateLayout)))
	}
	if to := c.QueryParam("date_to"); to != "" {
		d, err := parseDate(to)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date_to"})
		}
		q = q.Filter(store.Le("date", d.Format(store.DateLayout)))
	}

	cards, err := q.OrderBy(store.Desc("date")).All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cards": cardResponses(cards)})
}

// Stats summarizes the user's own progress. Rankings are deliberately not
// included here; participants only compare against themselves.
func (h *ParticipantHandler) Stats(c echo.Context) error {
	user := activeUser(c)
	if user == nil {
		return nil
	}
	sess := middleware.SessionFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	cards, err := store.NewQuery[model.DailyCard](sess).FilterBy("user_id", user.ID).All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	todayStr := today().Format(store.DateLayout)
	var todayPct, overallTotal, overallMax float64
	for _, card := range cards {
		overallTotal += card.TotalScore()
		overallMax += card.MaxScore()
		if card.Date.Format(store.DateLayout) == todayStr {
			todayPct = card.Percentage()
		}
	}
	var overallPct float64
	if overallMax > 0 {
		overallPct = roundPct(overallTotal / overallMax * 100)
	}

	var supervisor map[string]any
	if err := attachHalqas(ctx, sess, []*model.User{user}); err == nil &&
		user.Halqa != nil && user.Halqa.Supervisor != nil {
		sup := user.Halqa.Supervisor
		supervisor = map[string]any{
			"full_name": sup.FullName,
			"email":     sup.Email,
			"phone":     sup.Phone,
			"gender":    sup.Gender,
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"today_percentage":   todayPct,
		"overall_percentage": overallPct,
		"overall_total":      overallTotal,
		"cards_count":        len(cards),
		"supervisor":         supervisor,
	})
}
