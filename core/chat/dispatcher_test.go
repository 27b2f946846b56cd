package chat

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	available bool
	authors   map[string]model.AuthorDetail
}

func (f *fakeDirectory) ListAll(ctx context.Context) ([]string, bool) {
	if !f.available {
		return []string{}, false
	}
	names := []string{}
	for _, candidate := range []string{"Albert Einstein", "Jane Austen", "Mark Twain", "No Bio"} {
		if _, ok := f.authors[candidate]; ok {
			names = append(names, candidate)
		}
	}
	return names, true
}

func (f *fakeDirectory) Search(ctx context.Context, q string) []string {
	names := []string{}
	all, _ := f.ListAll(ctx)
	for _, name := range all {
		if strings.Contains(strings.ToLower(name), strings.ToLower(q)) {
			names = append(names, name)
		}
	}
	return names
}

func (f *fakeDirectory) Detail(ctx context.Context, name string) (model.AuthorDetail, bool) {
	detail, ok := f.authors[name]
	return detail, ok && f.available
}

func newTestDispatcher(t *testing.T, available bool) *Dispatcher {
	directory := &fakeDirectory{
		available: available,
		authors: map[string]model.AuthorDetail{
			"Albert Einstein": {Name: "Albert Einstein", Birth: "March 14, 1879 in Ulm, Germany", Bio: "Physicist.", Quote: "Q-E"},
			"Jane Austen":     {Name: "Jane Austen", Birth: "1775 England", Bio: "B", Quote: "Q1"},
			"Mark Twain":      {Name: "Mark Twain", Birth: model.UnknownBirth, Bio: "T", Quote: model.NoQuote},
			"No Bio":          {Name: "No Bio", Birth: model.UnknownBirth, Quote: model.NoQuote},
		},
	}
	logger := slog.New(helper.NewPrettyHandler(io.Discard, helper.PrettyHandlerOptions{}))
	d, err := NewDispatcher(directory, NewMemoryFavorites(), logger)
	require.NoError(t, err)
	return d
}

func TestHandleText(t *testing.T) {
	ctx := context.Background()

	t.Run("Start lists all authors", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		reply := d.HandleText(ctx, 1, CommandStart)
		assert.Equal(t, "Список доступных авторов:\nAlbert Einstein\nJane Austen\nMark Twain\nNo Bio\n\nПожалуйста, напишите имя или фамилию автора из списка.", reply.Text)
		assert.Equal(t, reply, d.HandleText(ctx, 1, ButtonShowAuthors))
	})

	t.Run("Unavailable store", func(t *testing.T) {
		d := newTestDispatcher(t, false)

		reply := d.HandleText(ctx, 1, CommandStart)
		assert.Equal(t, "Не удалось загрузить список авторов. Проверьте подключение к базе данных.", reply.Text)
	})

	t.Run("Single match shows the card", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		reply := d.HandleText(ctx, 1, "  austen ")
		assert.Equal(t, "Автор: Jane Austen\n\nДата и место рождения: 1775 England\n\nБиография: B\n\nЦитата: Q1", reply.Text)
		assert.Equal(t, []Action{{Label: ButtonAddFavorite, Data: "add_fav_Jane Austen"}}, reply.Actions)
	})

	t.Run("Placeholders are shown", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		reply := d.HandleText(ctx, 1, "Twain")
		assert.Contains(t, reply.Text, "Дата и место рождения: Неизвестно")
		assert.Contains(t, reply.Text, "Цитата: Цитат не найдено.")
	})

	t.Run("Several matches are listed", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		reply := d.HandleText(ctx, 1, "a")
		assert.True(t, strings.HasPrefix(reply.Text, "Найдено несколько авторов с похожим именем:\n"))
		assert.Contains(t, reply.Text, "Jane Austen\nMark Twain")
		assert.Empty(t, reply.Actions)
	})

	t.Run("No match", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		assert.Equal(t, "Автор не найден. Попробуйте снова.", d.HandleText(ctx, 1, "Tolkien").Text)
		assert.Equal(t, "Автор не найден. Попробуйте снова.", d.HandleText(ctx, 1, "   ").Text)
	})

	t.Run("Author without bio counts as missing", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		assert.Equal(t, "Информация об авторе не найдена.", d.HandleText(ctx, 1, "No Bio").Text)
	})
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty favorites", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		assert.Equal(t, Reply{Text: "У вас нет избранных авторов."}, d.HandleText(ctx, 1, ButtonFavorites))
	})

	t.Run("Add, list and open a favorite", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		card := d.HandleText(ctx, 7, "Einstein")
		require.Len(t, card.Actions, 1)

		reply := d.HandleAction(ctx, 7, card.Actions[0].Data)
		assert.Equal(t, "Автор Albert Einstein добавлен в избранное.", reply.Text)

		reply = d.HandleAction(ctx, 7, card.Actions[0].Data)
		assert.Equal(t, "Автор Albert Einstein уже в избранном.", reply.Text)

		list := d.HandleText(ctx, 7, ButtonFavorites)
		assert.Equal(t, "Ваши избранные авторы:", list.Text)
		require.Equal(t, []Action{{Label: "Albert Einstein", Data: "fav_Albert Einstein"}}, list.Actions)

		favorite := d.HandleAction(ctx, 7, list.Actions[0].Data)
		assert.Equal(t, "Автор: Albert Einstein\nДата и место рождения: March 14, 1879 in Ulm, Germany\n\nБиография: Physicist.\n\nЦитата: Q-E", favorite.Text)
		assert.Empty(t, favorite.Actions)

		assert.Equal(t, Reply{Text: "У вас нет избранных авторов."}, d.HandleText(ctx, 8, ButtonFavorites), "Favorites are per user")
	})

	t.Run("Names with underscores survive the payload", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		reply := d.HandleAction(ctx, 1, "add_fav_Some_Name")
		assert.Equal(t, "Автор Some_Name добавлен в избранное.", reply.Text)
		assert.Equal(t, []Action{{Label: "Some_Name", Data: "fav_Some_Name"}}, d.HandleText(ctx, 1, ButtonFavorites).Actions)
	})

	t.Run("Unknown favorite", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		assert.Equal(t, "Информация об авторе не найдена.", d.HandleAction(ctx, 1, "fav_Nobody").Text)
	})

	t.Run("Unknown action", func(t *testing.T) {
		d := newTestDispatcher(t, true)

		assert.Equal(t, "Неизвестное действие.", d.HandleAction(ctx, 1, "delete_everything").Text)
	})
}

func TestNewDispatcher(t *testing.T) {
	_, err := NewDispatcher(nil, NewMemoryFavorites(), nil)
	assert.Error(t, err)
}
