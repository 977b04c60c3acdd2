package store

// Key prefixes for persisted entities and secondary indexes.
const (
	bookPrefix        = "book:"
	userPrefix        = "user:"
	userByEmailPrefix = "idx:users:email:"
)

func bookKey(id string) []byte {
	return []byte(bookPrefix + id)
}

func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

func userEmailKey(email string) []byte {
	return []byte(userByEmailPrefix + email)
}
