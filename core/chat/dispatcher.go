package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/quoter/helper"
	"github.com/siherrmann/quoter/model"
)

// Directory is the read side the dispatcher needs, implemented by query.Service.
type Directory interface {
	ListAll(ctx context.Context) ([]string, bool)
	Search(ctx context.Context, q string) []string
	Detail(ctx context.Context, name string) (model.AuthorDetail, bool)
}

// Action is a button attached to a reply. Data is sent back through HandleAction.
type Action struct {
	Label string
	Data  string
}

// Reply is a platform independent answer.
type Reply struct {
	Text    string
	Actions []Action
}

// Dispatcher turns user messages and button presses into replies.
type Dispatcher struct {
	directory Directory
	favorites FavoritesStore
	log       *slog.Logger
}

// NewDispatcher creates a dispatcher reading from directory and keeping favorites in favorites.
func NewDispatcher(directory Directory, favorites FavoritesStore, logger *slog.Logger) (*Dispatcher, error) {
	if directory == nil || favorites == nil {
		return nil, helper.NewError("dispatcher validation", fmt.Errorf("directory and favorites must not be nil"))
	}
	if logger == nil {
		logger = helper.NewLogger(slog.LevelInfo)
	}
	return &Dispatcher{
		directory: directory,
		favorites: favorites,
		log:       logger,
	}, nil
}

// HandleText answers a text message of user.
func (d *Dispatcher) HandleText(ctx context.Context, user int64, text string) Reply {
	text = strings.TrimSpace(text)
	d.log.Debug("Handling message", slog.Int64("user", user), slog.String("text", text))

	switch text {
	case CommandStart, ButtonShowAuthors:
		return d.listAuthors(ctx)
	case ButtonFavorites:
		return d.listFavorites(user)
	case "":
		return Reply{Text: msgAuthorNotFound}
	}

	matches := d.directory.Search(ctx, text)
	switch len(matches) {
	case 0:
		return Reply{Text: msgAuthorNotFound}
	case 1:
		return d.detail(ctx, matches[0], msgDetailCard, true)
	default:
		return Reply{Text: msgSeveralHeader + strings.Join(matches, "\n") + msgSeveralFooter}
	}
}

// HandleAction answers a button press carrying data.
func (d *Dispatcher) HandleAction(ctx context.Context, user int64, data string) Reply {
	d.log.Debug("Handling action", slog.Int64("user", user), slog.String("data", data))

	switch {
	case strings.HasPrefix(data, ActionAddFavorite):
		name := strings.TrimPrefix(data, ActionAddFavorite)
		if d.favorites.Add(user, name) {
			return Reply{Text: fmt.Sprintf(msgFavoriteAdded, name)}
		}
		return Reply{Text: fmt.Sprintf(msgFavoriteExists, name)}
	case strings.HasPrefix(data, ActionFavorite):
		return d.detail(ctx, strings.TrimPrefix(data, ActionFavorite), msgFavoriteCard, false)
	default:
		return Reply{Text: msgUnknownAction}
	}
}

func (d *Dispatcher) listAuthors(ctx context.Context) Reply {
	names, ok := d.directory.ListAll(ctx)
	if !ok || len(names) == 0 {
		return Reply{Text: msgAuthorsFailed}
	}
	return Reply{Text: msgAuthorsHeader + strings.Join(names, "\n") + msgAuthorsFooter}
}

func (d *Dispatcher) listFavorites(user int64) Reply {
	names := d.favorites.List(user)
	if len(names) == 0 {
		return Reply{Text: msgFavoritesEmpty}
	}

	actions := make([]Action, 0, len(names))
	for _, name := range names {
		actions = append(actions, Action{Label: name, Data: ActionFavorite + name})
	}
	return Reply{Text: msgFavoritesHeader, Actions: actions}
}

// detail renders the author card, a card without bio counts as not found.
func (d *Dispatcher) detail(ctx context.Context, name string, format string, withFavorite bool) Reply {
	detail, ok := d.directory.Detail(ctx, name)
	if !ok || detail.Bio == "" {
		return Reply{Text: msgDetailNotFound}
	}

	reply := Reply{Text: fmt.Sprintf(format, detail.Name, detail.Birth, detail.Bio, detail.Quote)}
	if withFavorite {
		reply.Actions = []Action{{Label: ButtonAddFavorite, Data: ActionAddFavorite + detail.Name}}
	}
	return reply
}
