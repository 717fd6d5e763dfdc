package bing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/dictcrawler/internal/dict"
)

const fullPage = `<html><body>
<div id="headword"><h1><strong>flit</strong></h1></div>
<div class="hd_tf_lh"><div>
  <div class="hd_prUS">美 [flɪt]</div>
  <div><a onclick="javascript:BilingualDict.Click(this,'https://dictionary.blob.core.chinacloudapi.cn/media/audio/tom/5d/2c/5D2C.mp3','akicon.png',false,'dictionaryvoiceid')"></a></div>
  <div class="hd_pr">英 [flɪt]</div>
  <div><a onclick="javascript:BilingualDict.Click(this,'https://dictionary.blob.core.chinacloudapi.cn/media/audio/george/5d/2c/5D2C.MP3','akicon.png',false,'dictionaryvoiceid')"></a></div>
</div></div>
</body></html>`

func TestExtractFullPage(t *testing.T) {
	t.Parallel()

	res, err := New().Extract("flit", []byte(fullPage))
	require.NoError(t, err)
	require.Equal(t, dict.Word("flit"), res.SourceWord)
	require.Equal(t, "flit", dict.Deref(res.Headword))
	require.Equal(t, "[flɪt]", dict.Deref(res.USPhonetic))
	require.Equal(t, "[flɪt]", dict.Deref(res.UKPhonetic))
	require.Equal(t, "https://dictionary.blob.core.chinacloudapi.cn/media/audio/tom/5d/2c/5D2C.mp3", dict.Deref(res.USAudioURL))
	require.Equal(t, "https://dictionary.blob.core.chinacloudapi.cn/media/audio/george/5d/2c/5D2C.MP3", dict.Deref(res.UKAudioURL))
	require.False(t, res.Empty())
}

func TestExtractPartialPage(t *testing.T) {
	t.Parallel()

	page := `<div id="headword"><h1><strong>runs</strong></h1></div><div class="hd_pr">英 [rʌnz]</div>`
	res, err := New().Extract("runs", []byte(page))
	require.NoError(t, err)
	require.Equal(t, "runs", dict.Deref(res.Headword))
	require.Equal(t, "[rʌnz]", dict.Deref(res.UKPhonetic))
	require.Nil(t, res.USPhonetic)
	require.Nil(t, res.USAudioURL)
	require.Nil(t, res.UKAudioURL)
	require.False(t, res.Empty())
}

func TestExtractEmptyPage(t *testing.T) {
	t.Parallel()

	res, err := New().Extract("zzzz", []byte("<html><body>no results</body></html>"))
	require.NoError(t, err)
	require.Nil(t, res.Headword)
	require.True(t, res.Empty())
}

func TestExtractIgnoresNonMP3Onclick(t *testing.T) {
	t.Parallel()

	page := `<div class="hd_tf_lh"><div><div></div><div><a onclick="play('http://insecure/x.mp3')"></a></div></div></div>`
	res, err := New().Extract("x", []byte(page))
	require.NoError(t, err)
	require.Nil(t, res.USAudioURL)
}
