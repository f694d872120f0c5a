package filemgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExtensionAllowed(t *testing.T) {
	assert.True(t, IsExtensionAllowed(".jpg"))
	assert.True(t, IsExtensionAllowed(".JPEG"))
	assert.True(t, IsExtensionAllowed(".png"))
	assert.True(t, IsExtensionAllowed(".webp"))
	assert.False(t, IsExtensionAllowed(".gif"))
	assert.False(t, IsExtensionAllowed(".svg"))
	assert.False(t, IsExtensionAllowed(""))
	assert.False(t, IsExtensionAllowed(".exe"))
}

func TestIsMIMEAllowed(t *testing.T) {
	assert.True(t, IsMIMEAllowed("image/jpeg"))
	assert.True(t, IsMIMEAllowed("image/png"))
	assert.True(t, IsMIMEAllowed("image/webp"))
	assert.False(t, IsMIMEAllowed("image/svg+xml"))
	assert.False(t, IsMIMEAllowed("application/octet-stream"))
	assert.False(t, IsMIMEAllowed("text/html"))
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "uploads/products", ResolvePath(EntityProduct))
	assert.Equal(t, "uploads/users", ResolvePath(EntityUser))
	assert.Equal(t, "uploads/carousel", ResolvePath(EntityCarousel))
}

func TestStoredName(t *testing.T) {
	assert.Equal(t, "abc.jpg", StoredName("http://localhost:8080/uploads/products/abc.jpg"))
	assert.Equal(t, "", StoredName("no-slash"))
	assert.Equal(t, "", StoredName("trailing/"))
}
