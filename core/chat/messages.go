package chat

// Texts shown to the user.
const (
	ButtonAddFavorite = "Добавить в избранное"
	ButtonFavorites   = "Избранное"
	ButtonShowAuthors = "Показать авторов"

	msgAuthorsHeader   = "Список доступных авторов:\n"
	msgAuthorsFooter   = "\n\nПожалуйста, напишите имя или фамилию автора из списка."
	msgAuthorsFailed   = "Не удалось загрузить список авторов. Проверьте подключение к базе данных."
	msgSeveralHeader   = "Найдено несколько авторов с похожим именем:\n"
	msgSeveralFooter   = "\n\nПожалуйста, напишите полное имя автора из списка."
	msgAuthorNotFound  = "Автор не найден. Попробуйте снова."
	msgDetailNotFound  = "Информация об авторе не найдена."
	msgFavoriteAdded   = "Автор %s добавлен в избранное."
	msgFavoriteExists  = "Автор %s уже в избранном."
	msgFavoritesHeader = "Ваши избранные авторы:"
	msgFavoritesEmpty  = "У вас нет избранных авторов."
	msgDetailCard      = "Автор: %s\n\nДата и место рождения: %s\n\nБиография: %s\n\nЦитата: %s"
	msgFavoriteCard    = "Автор: %s\nДата и место рождения: %s\n\nБиография: %s\n\nЦитата: %s"
	msgUnknownAction   = "Неизвестное действие."
)

// Action payload prefixes.
const (
	ActionAddFavorite = "add_fav_"
	ActionFavorite    = "fav_"
)

// CommandStart opens the conversation.
const CommandStart = "/start"
