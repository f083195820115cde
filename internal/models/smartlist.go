package models

// Well-known smart list ids. Collaborators hardcode these; never change them.
const (
	SmartInbox     = "smart_inbox"
	SmartToday     = "smart_today"
	SmartWeek      = "smart_week"
	SmartAll       = "smart_all"
	SmartCompleted = "smart_completed"
	SmartTrash     = "smart_trash"
)

// SmartListColor is shared by every smart list row
const SmartListColor = "#3B82F6"

// ListKind selects how a list's membership is computed
type ListKind int

const (
	// KindUser is an explicit list id matched against tasks.list_id
	KindUser ListKind = iota
	KindInbox
	KindToday
	KindWeek
	KindAll
	KindCompleted
	KindTrash
)

func (k ListKind) String() string {
	switch k {
	case KindInbox:
		return "inbox"
	case KindToday:
		return "today"
	case KindWeek:
		return "week"
	case KindAll:
		return "all"
	case KindCompleted:
		return "completed"
	case KindTrash:
		return "trash"
	}
	return "user"
}

// ListRef is a resolved list id
type ListRef struct {
	Kind ListKind
	ID   string
}

// ResolveList maps a list id to its kind. Unrecognised ids are user lists.
func ResolveList(id string) ListRef {
	switch id {
	case SmartInbox:
		return ListRef{Kind: KindInbox, ID: id}
	case SmartToday:
		return ListRef{Kind: KindToday, ID: id}
	case SmartWeek:
		return ListRef{Kind: KindWeek, ID: id}
	case SmartAll:
		return ListRef{Kind: KindAll, ID: id}
	case SmartCompleted:
		return ListRef{Kind: KindCompleted, ID: id}
	case SmartTrash:
		return ListRef{Kind: KindTrash, ID: id}
	}
	return ListRef{Kind: KindUser, ID: id}
}

// IsSmartID reports whether id is one of the fixed smart list ids
func IsSmartID(id string) bool {
	return ResolveList(id).Kind != KindUser
}

// SmartLists returns the canonical smart list rows in display order.
// CreatedAt is left zero for the caller to stamp.
func SmartLists() []List {
	return []List{
		{ID: SmartAll, Name: "All", Icon: "📋", Color: SmartListColor, IsSmart: true, Order: 0},
		{ID: SmartToday, Name: "Today", Icon: "📅", Color: SmartListColor, IsSmart: true, Order: 1},
		{ID: SmartWeek, Name: "Next 7 Days", Icon: "📆", Color: SmartListColor, IsSmart: true, Order: 2},
		{ID: SmartInbox, Name: "Inbox", Icon: "📥", Color: SmartListColor, IsSmart: true, Order: 3},
		{ID: SmartCompleted, Name: "Completed", Icon: "✅", Color: SmartListColor, IsSmart: true, Order: 4},
		{ID: SmartTrash, Name: "Trash", Icon: "🗑️", Color: SmartListColor, IsSmart: true, Order: 5},
	}
}
