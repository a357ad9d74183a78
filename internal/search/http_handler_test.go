package search_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogsearch/internal/entity"
	"catalogsearch/internal/httpx"
	"catalogsearch/internal/query"
	"catalogsearch/internal/search"
	"catalogsearch/internal/search/mocks"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Success bool                    `json:"success"`
	Data    jsoniter.RawMessage     `json:"data"`
	Meta    map[string]interface{}  `json:"meta"`
	Error   httpx.ErrorResponseBody `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHTTPHandler_Search(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	engine := mocks.NewMockSearcher(ctrl)
	handler := search.NewHTTPHandler(engine, nil)

	work := entity.NewWork("Computer networking")
	work.ID = "w1"
	work.AddISBN("0132856204")
	author := entity.NewPerson("Kurose, James F.")
	_, err := entity.Link(author, entity.AuthorOf, work)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		engine.EXPECT().
			Search(gomock.Any(), gomock.Any(), []string{"central", "campus"}).
			DoAndReturn(func(_ context.Context, q *query.Group, _ []string) ([]*entity.Entity, error) {
				assert.True(t, query.Equal(query.Parse("author:kurose"), q))
				return []*entity.Entity{work}, nil
			})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/search?q=author:kurose&d=central,+campus,", nil)
		handler.Search(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		env := decode(t, w)
		assert.True(t, env.Success)
		assert.EqualValues(t, 1, env.Meta["total"])
		assert.Equal(t, query.Format(query.Parse("author:kurose")), env.Meta["query"])

		var views []search.EntityView
		require.NoError(t, json.Unmarshal(env.Data, &views))
		require.Len(t, views, 1)
		assert.Equal(t, "w1", views[0].ID)
		assert.Equal(t, "Computer networking", views[0].Name)
		require.Len(t, views[0].Relations, 1)
		assert.Equal(t, "incoming", views[0].Relations[0].Direction)
		assert.Equal(t, "Kurose, James F.", views[0].Relations[0].Entity.Name)
	})

	t.Run("missing query", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/search?q=+", nil)
		handler.Search(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)
	})

	t.Run("timeout", func(t *testing.T) {
		engine.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Nil()).Return(nil, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/search?q=kurose", nil)
		handler.Search(w, r)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Equal(t, "SEARCH_TIMEOUT", decode(t, w).Error.Code)
	})

	t.Run("error", func(t *testing.T) {
		engine.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("boom"))

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/search?q=kurose", nil)
		handler.Search(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/search?q=kurose", nil)
		handler.Search(w, r)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHTTPHandler_Query(t *testing.T) {
	handler := search.NewHTTPHandler(nil, nil)

	cases := []struct {
		name   string
		url    string
		status int
		output string
	}{
		{"rpn", "/v1/query?q=Kurose&syntax=rpn", http.StatusOK, `@or @attr 1=4 "Kurose" @attr 1=1003 "Kurose"`},
		{"default syntax", "/v1/query?q=Kurose", http.StatusOK, query.Parse("Kurose").String()},
		{"unknown syntax", "/v1/query?q=Kurose&syntax=cql", http.StatusBadRequest, ""},
		{"missing query", "/v1/query", http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Query(w, httptest.NewRequest(http.MethodGet, tc.url, nil))

			require.Equal(t, tc.status, w.Code)
			if tc.status != http.StatusOK {
				return
			}
			var out map[string]string
			require.NoError(t, json.Unmarshal(decode(t, w).Data, &out))
			assert.Equal(t, tc.output, out["output"])
			assert.Equal(t, "Kurose", out["input"])
		})
	}
}

func TestRender(t *testing.T) {
	q := query.Parse("title:galatea")
	for _, syntax := range []string{"", "string", "RPN", "text", "format"} {
		out, ok := search.Render(q, syntax)
		assert.True(t, ok, syntax)
		assert.NotEmpty(t, out, syntax)
	}
	_, ok := search.Render(q, "marc")
	assert.False(t, ok)
}
