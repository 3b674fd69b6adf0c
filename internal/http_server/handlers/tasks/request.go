package tasks

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	resp "task_manager/internal/lib/api/response"
	"task_manager/internal/models"

	"github.com/ajg/form"
	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
)

const dateTag = "datetime=" + models.DateLayout

type CreateRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

func (req CreateRequest) input() models.TaskInput {
	in := models.TaskInput{
		Title:       req.Title,
		Description: req.Description,
	}

	if req.DueDate != nil {
		// Already checked by the datetime tag.
		d, _ := time.Parse(models.DateLayout, *req.DueDate)
		in.DueDate = &d
	}
	if req.Priority != nil {
		in.Priority = models.Priority(*req.Priority)
	}

	return in
}

// UpdateRequest keeps absent, null and present apart for every field.
type UpdateRequest struct {
	Title       models.Optional[string] `json:"title"`
	Description models.Optional[string] `json:"description"`
	DueDate     models.Optional[string] `json:"due_date"`
	Priority    models.Optional[string] `json:"priority"`
	Status      models.Optional[string] `json:"status"`
}

// patch validates the present fields and converts them. A non-empty map means
// the request is rejected.
func (req UpdateRequest) patch(validate *validator.Validate) (models.TaskPatch, map[string]string) {
	var (
		p    models.TaskPatch
		errs = make(map[string]string)
	)

	check := func(field, value, tag string) bool {
		err := validate.Var(value, tag)
		if err == nil {
			return true
		}

		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			errs[field] = resp.Message(field, fieldErrs[0])
		} else {
			errs[field] = fmt.Sprintf("field %s is not valid", field)
		}

		return false
	}

	notNull := func(field string, o models.Optional[string]) bool {
		if o.Null {
			errs[field] = fmt.Sprintf("field %s may not be null", field)
			return false
		}
		return true
	}

	if req.Title.Set && notNull("title", req.Title) && check("title", req.Title.Value, "min=1,max=200") {
		p.Title = models.Some(req.Title.Value)
	}

	if req.Description.Set {
		if req.Description.Null {
			p.Description = models.Null[string]()
		} else {
			p.Description = models.Some(req.Description.Value)
		}
	}

	if req.DueDate.Set {
		if req.DueDate.Null {
			p.DueDate = models.Null[time.Time]()
		} else if check("due_date", req.DueDate.Value, dateTag) {
			d, _ := time.Parse(models.DateLayout, req.DueDate.Value)
			p.DueDate = models.Some(d)
		}
	}

	if req.Priority.Set && notNull("priority", req.Priority) &&
		check("priority", req.Priority.Value, "oneof=low medium high urgent") {
		p.Priority = models.Some(models.Priority(req.Priority.Value))
	}

	if req.Status.Set && notNull("status", req.Status) &&
		check("status", req.Status.Value, "oneof=todo in_progress done") {
		p.Status = models.Some(models.Status(req.Status.Value))
	}

	return p, errs
}

type ListQuery struct {
	Status   string `form:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority string `form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Q        string `form:"q"`
	DueFrom  string `form:"due_from" validate:"omitempty,datetime=2006-01-02"`
	DueTo    string `form:"due_to" validate:"omitempty,datetime=2006-01-02"`
	Sort     string `form:"sort"`
	Page     int    `form:"page" validate:"gte=1,lte=21474836"`
	PageSize int    `form:"page_size" validate:"gte=1,lte=100"`
}

// decodeListQuery fills a ListQuery from the URL, leaving defaults for absent keys.
func decodeListQuery(r *http.Request) (ListQuery, error) {
	q := ListQuery{
		Page:     1,
		PageSize: models.DefaultPageSize,
	}

	dec := form.NewDecoder(strings.NewReader(r.URL.RawQuery))
	dec.IgnoreUnknownKeys(true)

	if err := dec.Decode(&q); err != nil {
		return ListQuery{}, err
	}

	return q, nil
}

func (q ListQuery) filter() models.TaskFilter {
	f := models.TaskFilter{
		Query:    q.Q,
		Sort:     q.Sort,
		Page:     q.Page,
		PageSize: q.PageSize,
	}

	if q.Status != "" {
		s := models.Status(q.Status)
		f.Status = &s
	}
	if q.Priority != "" {
		p := models.Priority(q.Priority)
		f.Priority = &p
	}
	if q.DueFrom != "" {
		d, _ := time.Parse(models.DateLayout, q.DueFrom)
		f.DueFrom = &d
	}
	if q.DueTo != "" {
		d, _ := time.Parse(models.DateLayout, q.DueTo)
		f.DueTo = &d
	}

	return f
}

func taskID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}

	return id, true
}
