package domain

import "context"

// StateStore описывает durable key-value хранилище состояния корзины.
// Всё состояние — одна сериализованная запись под фиксированным ключом:
// чтение возвращает предыдущее значение или его отсутствие, запись заменяет
// запись целиком. Частичных обновлений нет, поэтому политика конкурентных
// писателей — last write wins.
type StateStore interface {
	// Load возвращает сериализованное состояние корзины.
	// Отсутствие записи — не ошибка: возвращается (nil, false, nil).
	Load(ctx context.Context) (data []byte, ok bool, err error)
	// Save полностью заменяет запись состояния.
	Save(ctx context.Context, data []byte) error
}

// ChangeNotifier публикует уведомление о том, что состояние корзины изменилось.
// Уведомление не несёт самого изменения и не упорядочивает конкурентных
// писателей — оно лишь сужает окно обнаружения по сравнению с чистым поллингом.
type ChangeNotifier interface {
	// NotifyChanged сообщает подписчикам, что контекст origin записал новое состояние.
	NotifyChanged(ctx context.Context, origin string) error
}
