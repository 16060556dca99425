package sqlinline

const QListTemplatesByProperty = `--sql 5a7e9c2d-1f4b-4d68-8c3a-0b2e6d9f4a17
select id, property_id, category, content_type, title, text_content, voice_style, temperature, updated_at
from content_templates
where property_id = $1::text
order by category, content_type, title;
`

const QSelectTemplate = `--sql e2b84f61-7c3d-4a95-b1e8-4d6a0c9f2b53
select id, property_id, category, content_type, title, text_content, voice_style, temperature, updated_at
from content_templates
where property_id = $1::text and id = $2::text
limit 1;
`

const QUpsertTemplate = `--sql 7d3c1a95-6e2b-4f08-a4d7-9b5e2c8f1a60
insert into content_templates (id, property_id, category, content_type, title, text_content, voice_style, temperature, updated_at)
values ($1::text, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8, now())
on conflict (property_id, id) do update set
  category = excluded.category,
  content_type = excluded.content_type,
  title = excluded.title,
  text_content = excluded.text_content,
  voice_style = excluded.voice_style,
  temperature = excluded.temperature,
  updated_at = now()
returning updated_at;
`
