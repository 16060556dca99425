package sqlinline

const QInsertAudioFile = `--sql 3f6b2c1e-8a4d-4c57-9e0b-1d2a7c5f9e31
insert into audio_files (
  content_template_id,
  property_id,
  file_url,
  file_path,
  duration,
  sampling_rate,
  voice_style,
  temperature,
  prediction_id
)
values ($1::text, $2::text, $3::text, $4::text, $5, $6, $7::text, $8, $9::text)
returning id::text, created_at;
`

const QListAudioFilesByProperty = `--sql 9c1d4e7a-2b6f-4a83-b5d0-6e8f1a3c7b24
select
  id::text,
  content_template_id,
  property_id,
  file_url,
  file_path,
  duration,
  sampling_rate,
  voice_style,
  temperature,
  prediction_id,
  created_at
from audio_files
where property_id = $1::text
order by created_at desc;
`
